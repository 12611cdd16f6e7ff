/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"encoding/binary"

	"github.com/facebookincubator/srt4u/srt/serial"
)

// SequenceNumbers names a set of lost packet sequence numbers carried in a
// NAK or DropRequest body: either a single 31-bit sequence, or an inclusive
// range encoded as two words.
type SequenceNumbers struct {
	first uint32
	last  uint32
	// isRange distinguishes a single value (first==last, isRange=false)
	// from a genuine one-element range, which the wire format cannot tell
	// apart from a single on decode, so range-ness is preserved explicitly
	// for round-tripping encode(decode(x)) == x.
	isRange bool
}

// SingleSequenceNumber returns a SequenceNumbers naming exactly one
// sequence number.
func SingleSequenceNumber(n uint32) SequenceNumbers {
	return SequenceNumbers{first: n & 0x7FFFFFFF, last: n & 0x7FFFFFFF}
}

// SequenceNumberRange returns a SequenceNumbers naming the inclusive range
// [first, last].
func SequenceNumberRange(first, last uint32) SequenceNumbers {
	return SequenceNumbers{first: first & 0x7FFFFFFF, last: last & 0x7FFFFFFF, isRange: true}
}

// First returns the first (or only) sequence number named.
func (s SequenceNumbers) First() uint32 { return s.first }

// Last returns the last (or only) sequence number named.
func (s SequenceNumbers) Last() uint32 { return s.last }

// IsRange reports whether s was constructed as a range, as opposed to a
// single value.
func (s SequenceNumbers) IsRange() bool { return s.isRange }

// Len returns the count of sequence numbers named by s.
func (s SequenceNumbers) Len() uint32 {
	if !s.isRange {
		return 1
	}
	return serial.Sub(s.last, s.first, serial.SequenceBits) + 1
}

// Contains reports whether n falls within the named range (or equals the
// single value).
func (s SequenceNumbers) Contains(n uint32) bool {
	n &= 0x7FFFFFFF
	if !s.isRange {
		return n == s.first
	}
	return serial.Cmp(s.first, n, serial.SequenceBits) != serial.Greater &&
		serial.Cmp(n, s.last, serial.SequenceBits) != serial.Greater
}

// EncodedLen returns the encoded size in bytes: 4 for a single value, 8 for
// a range.
func (s SequenceNumbers) EncodedLen() int {
	if s.isRange {
		return 8
	}
	return 4
}

// Encode appends the wire encoding of s to dst and returns the result. A
// single value is one big-endian word with the high bit clear; a range is
// two words, the first with the high bit set (marking it the start of a
// range) and the second with the high bit clear (the inclusive end).
func (s SequenceNumbers) Encode(dst []byte) []byte {
	if !s.isRange {
		var w [4]byte
		binary.BigEndian.PutUint32(w[:], s.first&0x7FFFFFFF)
		return append(dst, w[:]...)
	}
	var w [8]byte
	binary.BigEndian.PutUint32(w[0:4], s.first|0x80000000)
	binary.BigEndian.PutUint32(w[4:8], s.last&0x7FFFFFFF)
	return append(dst, w[:]...)
}

// DecodeSequenceNumbers reads one SequenceNumbers value from the front of
// b, returning it along with the number of bytes consumed.
func DecodeSequenceNumbers(b []byte) (SequenceNumbers, int, error) {
	if len(b) < 4 {
		return SequenceNumbers{}, 0, &ErrShortBuffer{Need: 4, Have: len(b)}
	}
	first := binary.BigEndian.Uint32(b[0:4])
	if first&0x80000000 == 0 {
		return SingleSequenceNumber(first), 4, nil
	}
	if len(b) < 8 {
		return SequenceNumbers{}, 0, &ErrShortBuffer{Need: 8, Have: len(b)}
	}
	last := binary.BigEndian.Uint32(b[4:8])
	return SequenceNumberRange(first&0x7FFFFFFF, last&0x7FFFFFFF), 8, nil
}

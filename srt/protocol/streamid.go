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
	"fmt"
	"strings"
)

// streamIDPrefix is the mandatory literal prefix of a canonical StreamId.
const streamIDPrefix = "#!::"

// EncodeStreamID encodes s for the wire: split into 4-byte groups, reverse
// the bytes within each group, zero-padding the final group before it is
// reversed (so any padding zeros end up leading once reversed).
func EncodeStreamID(s string) []byte {
	b := []byte(s)
	words := (len(b) + 3) / 4
	if words == 0 {
		return nil
	}
	out := make([]byte, words*4)
	copy(out, b)
	for i := 0; i < words; i++ {
		reverseInPlace(out[i*4 : i*4+4])
	}
	return out
}

// EncodedStreamIDWords returns the encoded length of s in 32-bit words.
func EncodedStreamIDWords(s string) int {
	return (len(s) + 3) / 4
}

// DecodeStreamID reverses EncodeStreamID: each 4-byte group is un-reversed,
// with leading zero padding in the final group's wire bytes stripped
// before the reversal is undone.
func DecodeStreamID(b []byte) string {
	words := len(b) / 4
	out := make([]byte, 0, len(b))
	for i := 0; i < words; i++ {
		chunk := b[i*4 : i*4+4]
		if i == words-1 {
			j := 0
			for j < len(chunk) && chunk[j] == 0 {
				j++
			}
			chunk = chunk[j:]
		}
		rev := make([]byte, len(chunk))
		for k, c := range chunk {
			rev[len(chunk)-1-k] = c
		}
		out = append(out, rev...)
	}
	return string(out)
}

func reverseInPlace(b []byte) {
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
}

// ErrInvalidStreamIDPrefix is returned when a StreamId does not begin with
// the mandatory "#!::" prefix.
type ErrInvalidStreamIDPrefix struct{}

func (e *ErrInvalidStreamIDPrefix) Error() string { return `srt: streamid missing "#!::" prefix` }

// ErrInvalidStreamIDEntry is returned when a StreamId key=value pair is
// malformed.
type ErrInvalidStreamIDEntry struct {
	Entry string
}

func (e *ErrInvalidStreamIDEntry) Error() string {
	return fmt.Sprintf("srt: invalid streamid entry %q", e.Entry)
}

// StandardStreamID is the parsed form of a canonical `#!::k=v,...` StreamId
// string. Only the keys the engine recognizes (u, r, h, s, t, m) are
// exposed as accessors; unrecognized keys are preserved in Fields.
type StandardStreamID struct {
	Fields map[string]string
}

// ParseStandardStreamID parses s as a canonical StreamId.
func ParseStandardStreamID(s string) (StandardStreamID, error) {
	if !strings.HasPrefix(s, streamIDPrefix) {
		return StandardStreamID{}, &ErrInvalidStreamIDPrefix{}
	}
	rest := strings.TrimPrefix(s, streamIDPrefix)
	fields := make(map[string]string)
	if rest == "" {
		return StandardStreamID{Fields: fields}, nil
	}
	for _, entry := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			return StandardStreamID{}, &ErrInvalidStreamIDEntry{Entry: entry}
		}
		fields[k] = v
	}
	return StandardStreamID{Fields: fields}, nil
}

// User returns the "u" field.
func (s StandardStreamID) User() string { return s.Fields["u"] }

// Resource returns the "r" field: a hex-encoded 64-bit resource id.
func (s StandardStreamID) Resource() string { return s.Fields["r"] }

// Host returns the "h" field.
func (s StandardStreamID) Host() string { return s.Fields["h"] }

// Session returns the "s" field: an opaque session token.
func (s StandardStreamID) Session() string { return s.Fields["s"] }

// Type returns the "t" field.
func (s StandardStreamID) Type() string { return s.Fields["t"] }

// Mode returns the "m" field: "publish" or "request".
func (s StandardStreamID) Mode() string { return s.Fields["m"] }

// String renders s back to its canonical "#!::k=v,..." form. Field
// iteration order is not guaranteed to match the original input's order.
func (s StandardStreamID) String() string {
	var b strings.Builder
	b.WriteString(streamIDPrefix)
	first := true
	for k, v := range s.Fields {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

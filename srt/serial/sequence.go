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

package serial

// SequenceBits is the width of an SRT packet sequence number.
const SequenceBits = 31

// MessageBits is the width of an SRT message number.
const MessageBits = 26

// Sequence is a 31-bit SRT packet sequence number.
type Sequence uint32

// NewSequence masks v into the 31-bit sequence space.
func NewSequence(v uint32) Sequence {
	return Sequence(v & mask(SequenceBits))
}

// Add returns the sequence n positions ahead of s, wrapping at 1<<31.
func (s Sequence) Add(n uint32) Sequence {
	return Sequence(Add(uint32(s), n, SequenceBits))
}

// Next is shorthand for s.Add(1).
func (s Sequence) Next() Sequence {
	return s.Add(1)
}

// Sub returns the distance from other to s, wrapping at 1<<31.
func (s Sequence) Sub(other Sequence) uint32 {
	return Sub(uint32(s), uint32(other), SequenceBits)
}

// Cmp compares s to other using serial-31 half-space wraparound.
func (s Sequence) Cmp(other Sequence) Order {
	return Cmp(uint32(s), uint32(other), SequenceBits)
}

// Less reports whether s precedes other in serial order.
func (s Sequence) Less(other Sequence) bool {
	return s.Cmp(other) == Less
}

// MessageNumber is a 26-bit SRT message number.
type MessageNumber uint32

// NewMessageNumber masks v into the 26-bit message number space.
func NewMessageNumber(v uint32) MessageNumber {
	return MessageNumber(v & mask(MessageBits))
}

// Add returns the message number n positions ahead of m, wrapping at 1<<26.
func (m MessageNumber) Add(n uint32) MessageNumber {
	return MessageNumber(Add(uint32(m), n, MessageBits))
}

// Next is shorthand for m.Add(1).
func (m MessageNumber) Next() MessageNumber {
	return m.Add(1)
}

// Cmp compares m to other using serial-26 half-space wraparound.
func (m MessageNumber) Cmp(other MessageNumber) Order {
	return Cmp(uint32(m), uint32(other), MessageBits)
}

// Less reports whether m precedes other in serial order.
func (m MessageNumber) Less(other MessageNumber) bool {
	return m.Cmp(other) == Less
}

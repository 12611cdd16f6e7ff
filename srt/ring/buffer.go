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

// Package ring implements the send-side retransmission buffer: a
// fixed-capacity circular buffer of sent payloads addressed by serial-31
// sequence number, with the oldest entry silently overwritten once full.
package ring

import (
	"sync"

	"github.com/facebookincubator/srt4u/srt/serial"
)

// Buffer is a fixed-capacity ring of (sequence, payload) entries, indexed
// directly by sequence number modulo its capacity. Entries must be pushed
// in strictly increasing serial-31 sequence order, which holds for SRT's
// per-connection outbound data sequence numbers. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	data     []entry
	capacity uint32
	head     uint32 // most recently pushed sequence number
	started  bool
}

type entry struct {
	seq     uint32
	payload []byte
	valid   bool
}

// New returns a Buffer with room for capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{data: make([]entry, capacity), capacity: uint32(capacity)}
}

// Push stores payload under seq, which must be the next sequence number in
// series (i.e. equal to the previous Push's seq+1 under serial-31
// arithmetic). If the buffer is full, the oldest entry's slot is silently
// overwritten.
func (b *Buffer) Push(seq uint32, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := seq % b.capacity
	b.data[pos] = entry{seq: seq, payload: payload, valid: true}
	b.head = seq
	b.started = true
}

// Get returns the payload stored for seq, and whether it is still present.
// A sequence number outside the buffer's live window — too old (evicted by
// wraparound) or never pushed — reports false.
func (b *Buffer) Get(seq uint32) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil, false
	}
	age := serial.Sub(b.head, seq, serial.SequenceBits)
	if age >= b.capacity {
		return nil, false
	}
	pos := seq % b.capacity
	e := b.data[pos]
	if !e.valid || e.seq != seq {
		return nil, false
	}
	return e.payload, true
}

// Clear empties the buffer, as done on connection shutdown.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.data {
		b.data[i] = entry{}
	}
	b.head = 0
	b.started = false
}

// Len returns the number of live entries, capped at the buffer's capacity.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.data {
		if e.valid {
			n++
		}
	}
	return n
}

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

package reorder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	recv [][]byte
}

func (r *recordingSink) Write(buf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = append(r.recv, append([]byte(nil), buf...))
	return nil
}

func (r *recordingSink) received() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.recv...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []DropReason
	bytes  int
}

func (o *recordingObserver) OnDrop(reason DropReason, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, reason)
	o.bytes += n
}

func TestBufferReleasesInOrderDespiteArrivalPermutation(t *testing.T) {
	sink := &recordingSink{}
	b := New(30*time.Millisecond, sink, nil)
	defer b.Close()

	// arrive out of order: 3, 1, 2
	b.Push(3, []byte("c"))
	b.Push(1, []byte("a"))
	b.Push(2, []byte("b"))

	require.Eventually(t, func() bool {
		return len(sink.received()) == 3
	}, time.Second, 5*time.Millisecond)

	got := sink.received()
	require.Equal(t, []byte("a"), got[0])
	require.Equal(t, []byte("b"), got[1])
	require.Equal(t, []byte("c"), got[2])
}

func TestBufferDropsLateAndDuplicate(t *testing.T) {
	sink := &recordingSink{}
	obs := &recordingObserver{}
	b := New(20*time.Millisecond, sink, obs)
	defer b.Close()

	b.Push(1, []byte("a"))
	require.Eventually(t, func() bool { return len(sink.received()) == 1 }, time.Second, 5*time.Millisecond)

	b.Push(1, []byte("late-duplicate")) // next is now 2; this is both late and a would-be duplicate
	obs.mu.Lock()
	require.Contains(t, obs.events, DropLate)
	obs.mu.Unlock()

	b.Push(5, []byte("future"))
	b.Push(5, []byte("dup-of-future"))
	require.Eventually(t, func() bool {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		for _, e := range obs.events {
			if e == DropDuplicate {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestBufferCloseReportsDroppedBytes(t *testing.T) {
	sink := &recordingSink{}
	b := New(time.Hour, sink, nil) // latency far in the future: nothing releases before Close
	b.Push(1, []byte("abcde"))
	n := b.Close()
	require.Equal(t, 5, n)
}

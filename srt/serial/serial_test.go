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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddSub4Bit(t *testing.T) {
	require.Equal(t, uint32(1), Add(15, 2, 4))
	require.Equal(t, uint32(15), Sub(1, 2, 4))
}

func TestCmp4Bit(t *testing.T) {
	require.Equal(t, Equal, Cmp(5, 5, 4))
	require.Equal(t, Less, Cmp(1, 2, 4))
	require.Equal(t, Greater, Cmp(2, 1, 4))
	// wraparound: 15 precedes 1 in a 4-bit space (distance 2)
	require.Equal(t, Less, Cmp(15, 1, 4))
	require.Equal(t, Greater, Cmp(1, 15, 4))
}

func TestCmp8Bit(t *testing.T) {
	require.Equal(t, Less, Cmp(255, 0, 8))
	require.Equal(t, Greater, Cmp(0, 255, 8))
	require.Equal(t, Greater, Cmp(0, 128, 8))
}

func TestCmpAgreesWithNaturalOrderWithinHalfSpace(t *testing.T) {
	const bits = 8
	const m = uint32(1<<bits) - 1
	half := uint32(1) << (bits - 1)
	for a := uint32(0); a <= m; a++ {
		for delta := uint32(1); delta < half; delta++ {
			b := (a + delta) & m
			got := Cmp(a, b, bits)
			require.Equal(t, Less, got, "a=%d b=%d delta=%d", a, b, delta)
			require.Equal(t, Greater, Cmp(b, a, bits), "b=%d a=%d delta=%d", b, a, delta)
		}
	}
}

func TestSequenceWraparound(t *testing.T) {
	s := NewSequence(0)
	s = s.Add(1)
	require.Equal(t, Sequence(1), s)

	s = NewSequence((1 << 31) - 2)
	s = s.Add(1)
	require.Equal(t, Sequence((1<<31)-1), s)

	s = s.Add(1)
	require.Equal(t, Sequence(0), s, "sequence must wrap at 1<<31")
}

func TestSequenceLess(t *testing.T) {
	a := NewSequence(10)
	b := NewSequence(20)
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestMessageNumberWraparound(t *testing.T) {
	m := NewMessageNumber((1 << 26) - 1)
	require.Equal(t, MessageNumber(0), m.Next())
}

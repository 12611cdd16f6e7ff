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

package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferPushGet(t *testing.T) {
	b := New(4)
	b.Push(10, []byte("a"))
	b.Push(11, []byte("b"))

	got, ok := b.Get(10)
	require.True(t, ok)
	require.Equal(t, []byte("a"), got)

	got, ok = b.Get(11)
	require.True(t, ok)
	require.Equal(t, []byte("b"), got)

	_, ok = b.Get(12)
	require.False(t, ok)
}

func TestBufferOverwritesOldestOnWrap(t *testing.T) {
	b := New(2)
	b.Push(1, []byte("one"))
	b.Push(2, []byte("two"))
	b.Push(3, []byte("three")) // evicts seq 1

	_, ok := b.Get(1)
	require.False(t, ok)

	got, ok := b.Get(2)
	require.True(t, ok)
	require.Equal(t, []byte("two"), got)

	got, ok = b.Get(3)
	require.True(t, ok)
	require.Equal(t, []byte("three"), got)
}

func TestBufferClear(t *testing.T) {
	b := New(4)
	b.Push(1, []byte("x"))
	require.Equal(t, 1, b.Len())
	b.Clear()
	require.Equal(t, 0, b.Len())
	_, ok := b.Get(1)
	require.False(t, ok)
}

func TestBufferEmptyGet(t *testing.T) {
	b := New(4)
	_, ok := b.Get(0)
	require.False(t, ok)
}

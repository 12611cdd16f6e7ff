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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceNumbersLiteralRangeVector(t *testing.T) {
	wire := []byte{0x86, 0x2D, 0x67, 0xFA, 0x06, 0x2D, 0x68, 0x13}
	sn, n, err := DecodeSequenceNumbers(wire)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.True(t, sn.IsRange())
	require.Equal(t, uint32(103639034), sn.First())
	require.Equal(t, uint32(103639059), sn.Last())
	require.Equal(t, uint32(26), sn.Len())
	require.Equal(t, wire, sn.Encode(nil))
}

func TestSequenceNumbersSingleRoundTrip(t *testing.T) {
	sn := SingleSequenceNumber(42)
	wire := sn.Encode(nil)
	require.Equal(t, 4, len(wire))
	require.Equal(t, byte(0), wire[0]&0x80, "single value must have the high bit clear")

	got, n, err := DecodeSequenceNumbers(wire)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.False(t, got.IsRange())
	require.Equal(t, uint32(42), got.First())
}

func TestSequenceNumbersRangeHighBit(t *testing.T) {
	sn := SequenceNumberRange(100, 200)
	wire := sn.Encode(nil)
	require.Equal(t, 8, len(wire))
	require.Equal(t, byte(0x80), wire[0]&0x80, "range start word must have the high bit set")
	require.Equal(t, byte(0), wire[4]&0x80, "range end word must have the high bit clear")

	got, n, err := DecodeSequenceNumbers(wire)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.True(t, got.IsRange())
	require.Equal(t, uint32(100), got.First())
	require.Equal(t, uint32(200), got.Last())
}

func TestSequenceNumbersContains(t *testing.T) {
	sn := SequenceNumberRange(10, 20)
	require.True(t, sn.Contains(10))
	require.True(t, sn.Contains(15))
	require.True(t, sn.Contains(20))
	require.False(t, sn.Contains(9))
	require.False(t, sn.Contains(21))
}

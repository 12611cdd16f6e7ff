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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamIDLiteralVector(t *testing.T) {
	want := []byte{
		0x3a, 0x3a, 0x21, 0x23, 0x65, 0x72, 0x3d, 0x6d,
		0x73, 0x65, 0x75, 0x71, 0x3d, 0x72, 0x2c, 0x74,
		0x35, 0x33, 0x32, 0x31,
	}
	got := EncodeStreamID("#!::m=request,r=1235")
	require.Equal(t, want, got)
	require.Equal(t, "#!::m=request,r=1235", DecodeStreamID(want))
}

func TestStreamIDRoundTripVariousLengths(t *testing.T) {
	for n := 0; n <= 512; n++ {
		s := strings.Repeat("a", n)
		encoded := EncodeStreamID(s)
		require.Equal(t, EncodedStreamIDWords(s)*4, len(encoded), "n=%d", n)
		require.Equal(t, s, DecodeStreamID(encoded), "n=%d", n)
	}
}

func TestParseStandardStreamID(t *testing.T) {
	id, err := ParseStandardStreamID("#!::m=request,r=1235,s=tok")
	require.NoError(t, err)
	require.Equal(t, "request", id.Mode())
	require.Equal(t, "1235", id.Resource())
	require.Equal(t, "tok", id.Session())
}

func TestParseStandardStreamIDMissingPrefix(t *testing.T) {
	_, err := ParseStandardStreamID("m=request")
	require.Error(t, err)
	require.IsType(t, &ErrInvalidStreamIDPrefix{}, err)
}

func TestParseStandardStreamIDMalformedEntry(t *testing.T) {
	_, err := ParseStandardStreamID("#!::bogus")
	require.Error(t, err)
	require.IsType(t, &ErrInvalidStreamIDEntry{}, err)
}

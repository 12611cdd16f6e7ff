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

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryPublishThenRequestDeliversBytes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sink, err := m.Publish(ctx, 0x1234, "token")
	require.NoError(t, err)

	stream, err := m.Request(ctx, 0x1234, "token")
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, sink.Write([]byte("hello")))

	buf, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), buf)
}

func TestMemoryMultipleSubscribersEachGetACopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sink, err := m.Publish(ctx, 1, "")
	require.NoError(t, err)

	s1, err := m.Request(ctx, 1, "")
	require.NoError(t, err)
	defer s1.Close()
	s2, err := m.Request(ctx, 1, "")
	require.NoError(t, err)
	defer s2.Close()

	require.NoError(t, sink.Write([]byte("x")))

	b1, err := s1.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), b1)

	b2, err := s2.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), b2)
}

func TestMemoryRequestUnknownResource(t *testing.T) {
	m := NewMemory()
	_, err := m.Request(context.Background(), 0xDEAD, "")
	require.ErrorIs(t, err, ErrInvalidResourceID)
}

func TestMemoryStreamNextRespectsContextCancellation(t *testing.T) {
	m := NewMemory()
	_, err := m.Publish(context.Background(), 2, "")
	require.NoError(t, err)
	stream, err := m.Request(context.Background(), 2, "")
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStreamCloseUnblocksNext(t *testing.T) {
	m := NewMemory()
	_, err := m.Publish(context.Background(), 3, "")
	require.NoError(t, err)
	stream, err := m.Request(context.Background(), 3, "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, stream.Close())

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrStreamExhausted)
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock after Close")
	}
}

func TestMemorySinkWriteAfterCloseFails(t *testing.T) {
	m := NewMemory()
	sink, err := m.Publish(context.Background(), 4, "")
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.ErrorIs(t, sink.Write([]byte("x")), ErrServerError)
}

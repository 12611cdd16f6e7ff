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

// Package session defines the boundary between the SRT engine and
// whatever holds the actual media: a publisher's stream, a requester's
// sink. The engine only ever talks to these three interfaces; any backend
// (in-memory, on-disk, a GStreamer pipeline) implements them without the
// engine knowing the difference.
package session

import (
	"context"
	"errors"
)

// Sentinel errors a Manager implementation returns so callers can branch
// with errors.Is without depending on the implementation's error types.
var (
	// ErrInvalidResourceID is returned when the requested resource does
	// not exist or is not currently being published.
	ErrInvalidResourceID = errors.New("session: invalid resource id")
	// ErrInvalidCredentials is returned when the supplied token does not
	// authorize the requested operation on the resource.
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	// ErrServerError is returned for any backend failure that is not a
	// caller mistake (storage unavailable, internal panic recovered,
	// etc).
	ErrServerError = errors.New("session: internal server error")
	// ErrStreamExhausted is the io.EOF-equivalent a Stream.Next returns
	// once no more data will ever arrive.
	ErrStreamExhausted = errors.New("session: stream exhausted")
)

// Manager is the entry point a connection's handshake conclusion hands
// off to: it binds a resource/token pair to either a Sink (publish mode)
// or a Stream (request mode).
type Manager interface {
	// Publish authorizes resource/token to publish and returns the Sink
	// the connection's inbound data should be written to.
	Publish(ctx context.Context, resource uint64, token string) (Sink, error)
	// Request authorizes resource/token to subscribe and returns the
	// Stream the connection's outbound sender should pull from.
	Request(ctx context.Context, resource uint64, token string) (Stream, error)
}

// Sink accepts ordered byte buffers, one SRT payload per call. A non-nil
// error signals backpressure or a permanent failure; the caller decides
// which by inspecting the error.
type Sink interface {
	Write(buf []byte) error
	Close() error
}

// Stream yields byte buffers to be sent as SRT data packets. Next blocks
// until a buffer is available, ctx is canceled, or the stream is
// exhausted (ErrStreamExhausted).
type Stream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

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

package server

import (
	"context"
	"net"
	"time"

	"github.com/facebookincubator/srt4u/srt/reorder"
	"github.com/facebookincubator/srt4u/srt/ring"
	"github.com/facebookincubator/srt4u/srt/session"
)

// connRuntime holds the domain-runtime state a connection needs once it
// is established, kept separate from conn.Connection so that package
// stays a clean protocol-only abstraction: identity, lifecycle state,
// RTT, and the inflight-ACK queue, nothing about sessions or buffers.
//
// A connRuntime is used by the connection's own handler goroutine and,
// for a requester connection, by its sender goroutine, which alone
// advances msgNum; the fields set once at induction/conclusion are
// installed by the dispatcher goroutine. It carries no internal lock of
// its own.
type connRuntime struct {
	addr *net.UDPAddr

	// initialSeq is the server's starting data sequence number,
	// generated at induction and echoed in the conclusion response's
	// initial_packet_sequence_number field.
	initialSeq uint32

	sink   session.Sink
	stream session.Stream

	reorderBuf *reorder.Buffer
	retransmit *ring.Buffer

	// msgNum is the next outbound message number for a requester
	// connection, seeded to 1 at conclusion (message numbers start at 1);
	// only the sender goroutine increments it.
	msgNum uint32

	cancel context.CancelFunc

	ackSent   bool
	lastAckAt time.Time // written only by the connection's handler goroutine
}

func (s *Server) putRuntime(id uint32, rt *connRuntime) {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	s.runtimes[id] = rt
}

func (s *Server) getRuntime(id uint32) (*connRuntime, bool) {
	s.rtMu.RLock()
	defer s.rtMu.RUnlock()
	rt, ok := s.runtimes[id]
	return rt, ok
}

func (s *Server) deleteRuntime(id uint32) {
	s.rtMu.Lock()
	defer s.rtMu.Unlock()
	delete(s.runtimes, id)
}

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
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/conn"
	"github.com/facebookincubator/srt4u/srt/protocol"
)

// dispatchLoop owns the UDP socket. It decodes every datagram, routes it
// to an existing connection's inbound queue, or hands a bare induction
// handshake to handleInduction. It never blocks on a slow per-connection
// handler: a full inbound queue is a drop, counted and left for the peer
// to notice via NAK/retransmit.
func (s *Server) dispatchLoop(ctx context.Context) error {
	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.udpConn.SetReadDeadline(time.Now().Add(readDeadlineStep)); err != nil {
			return fmt.Errorf("srt: setting read deadline: %w", err)
		}
		n, addr, err := s.udpConn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("srt: udp read: %w", err)
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.handleDatagram(payload, addr)
	}
}

func (s *Server) handleDatagram(b []byte, addr *net.UDPAddr) {
	pkt, err := protocol.DecodePacket(b)
	var unsupported *protocol.ErrUnsupportedExtension
	if err != nil && !errors.As(err, &unsupported) {
		s.Stats.IncDecodeErrors()
		log.WithField("addr", addr).Debugf("srt: dropping undecodable datagram: %v", err)
		return
	}

	h := protocol.HeaderOf(pkt)
	c, ok := s.pool.Get(h.DestinationSocketID)
	if !ok {
		if hp, isHandshake := pkt.(protocol.HandshakePacket); isHandshake && hp.HandshakeType == protocol.HandshakeTypeInduction {
			s.handleInduction(hp, addr)
		}
		return
	}

	c.Touch()
	c.Metrics.AddReceived(1, uint64(len(b)))
	s.Stats.IncRX(controlTypeOf(pkt))

	// A connection in StateInduction has no runConnection goroutine
	// draining its inbound queue yet — that goroutine is only spawned
	// once handleConclusion promotes it to StateDone. So the conclusion
	// handshake that makes that promotion happen has to be handled
	// synchronously here, on the dispatcher goroutine, instead of queued.
	if hp, isHandshake := pkt.(protocol.HandshakePacket); isHandshake && c.State() == conn.StateInduction {
		s.handleConclusion(c, hp)
		return
	}

	select {
	case c.Inbound <- b:
	default:
		c.Metrics.IncDropped()
	}
}

// controlTypeOf returns pkt's control type for stats purposes, or -1 for
// a data packet — the same convention stats.JSONStats.IncRX/IncTX key on.
func controlTypeOf(pkt protocol.Packet) int {
	h := protocol.HeaderOf(pkt)
	if !h.IsControl() {
		return -1
	}
	return int(h.ControlType())
}

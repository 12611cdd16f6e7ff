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
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/conn"
	"github.com/facebookincubator/srt4u/srt/protocol"
	"github.com/facebookincubator/srt4u/srt/reorder"
	"github.com/facebookincubator/srt4u/srt/serial"
)

// dropObserver adapts a reorder.Buffer's drop callbacks onto a
// connection's metrics and the server's process-wide counters.
type dropObserver struct {
	c     *conn.Connection
	stats interface {
		IncLate()
		IncDuplicate()
	}
}

func (d *dropObserver) OnDrop(reason reorder.DropReason, n int) {
	switch reason {
	case reorder.DropLate:
		d.c.Metrics.IncLate()
		d.stats.IncLate()
	case reorder.DropDuplicate:
		d.c.Metrics.IncDuplicate()
		d.stats.IncDuplicate()
	case reorder.DropClosed:
		d.c.Metrics.AddBytesDropped(uint64(n))
	}
}

// runConnection is the single goroutine that owns c's inbound queue for
// its entire established lifetime: every packet arriving on c.Inbound is
// handled sequentially here, so no two handlers for the same connection
// ever run concurrently. It exits on Shutdown (explicit Shutdown packet or
// reaper eviction) or when ctx is canceled.
func (s *Server) runConnection(ctx context.Context, c *conn.Connection, rt *connRuntime) {
	defer s.closeConnection(c, rt)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("conn", c.ID).Errorf("srt: connection handler panic: %v", r)
		}
	}()

	for {
		select {
		case b, ok := <-c.Inbound:
			if !ok {
				return
			}
			s.handleConnPacket(c, rt, b)
		case <-c.ShutdownCh():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleConnPacket(c *conn.Connection, rt *connRuntime, b []byte) {
	pkt, err := protocol.DecodePacket(b)
	if err != nil {
		s.Stats.IncDecodeErrors()
		return
	}

	switch p := pkt.(type) {
	case protocol.DataPacket:
		s.handleData(c, rt, p)
	case protocol.AckPacket:
		s.handleAck(c, rt, p)
	case protocol.AckAckPacket:
		s.handleAckAck(c, p)
	case protocol.NakPacket:
		s.handleNak(c, rt, p)
	case protocol.ShutdownPacket:
		c.Shutdown()
	case protocol.KeepalivePacket:
		// liveness only; Touch already ran in the dispatcher.
	default:
		// Handshake/DropRequest are not expected from a peer against an
		// established connection; ignore rather than fail the connection
		// over an out-of-place packet.
	}
}

// handleData processes one inbound data packet for a publisher
// connection: in-order segments advance the client sequence number and
// are fed to the reorder buffer; anything else is a gap, reported to the
// caller only implicitly (there is no receiver-initiated NAK
// generation). It also drives the full-ACK emission schedule.
func (s *Server) handleData(c *conn.Connection, rt *connRuntime, p protocol.DataPacket) {
	if rt.reorderBuf == nil {
		// A request-mode connection receiving data makes no protocol
		// sense; drop.
		return
	}

	seq := p.PacketSequenceNumber()
	last := c.ClientSequence()
	if serial.Cmp(seq, last, serial.SequenceBits) != serial.Greater {
		c.Metrics.IncLate()
		return
	}
	c.SetClientSequence(seq)

	rt.reorderBuf.Push(p.MessageNumber(), p.Data)

	s.maybeSendAck(c, rt)
}

// maybeSendAck implements the full-ACK emission rule: send if no ACK has
// been sent yet and the connection has been alive for at least the
// configured interval, or if at least one interval has elapsed since the
// last ACK.
func (s *Server) maybeSendAck(c *conn.Connection, rt *connRuntime) {
	now := time.Now()
	interval := s.Config.AckInterval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	send := false
	if !rt.ackSent {
		send = time.Since(c.StartTime) >= interval
	} else {
		send = now.Sub(rt.lastAckAt) >= interval
	}
	if !send {
		return
	}

	rtt, variance := c.RTT.Load()
	ackNum := c.NextServerAck()

	ack := protocol.NewAckPacket()
	ack.Header.DestinationSocketID = c.ID.ClientSocketID
	ack.Header.Timestamp = c.Timestamp()
	ack.SetAcknowledgementNumber(ackNum)
	ack.LastAcknowledgedPacketSeqNum = serial.Add(c.ClientSequence(), 1, serial.SequenceBits)
	ack.RTT = rtt
	ack.RTTVariance = variance
	ack.AvailableBufferSize = uint32(s.Config.AvailableBufferSize)

	if _, err := s.udpConn.WriteToUDP(ack.Encode(), rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: ack write failed: %v", err)
		return
	}

	c.PushInflightAck(ackNum, now)
	c.Metrics.IncAcksSent()
	s.Stats.IncTX(int(protocol.ControlTypeAck))
	rt.ackSent = true
	rt.lastAckAt = now
}

// handleAck stores the peer's advertised available buffer size (waking
// any sender waiting out a zero advertisement) and echoes the ack number
// back as an ACKACK so the peer can measure RTT.
func (s *Server) handleAck(c *conn.Connection, rt *connRuntime, p protocol.AckPacket) {
	c.SetBuffersAvail(p.AvailableBufferSize)

	ackack := protocol.NewAckAckPacket()
	ackack.Header.DestinationSocketID = c.ID.ClientSocketID
	ackack.Header.Timestamp = c.Timestamp()
	ackack.SetAcknowledgementNumber(p.AcknowledgementNumber())

	if _, err := s.udpConn.WriteToUDP(ackack.Encode(), rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: ackack write failed: %v", err)
		return
	}
	s.Stats.IncTX(int(protocol.ControlTypeAckAck))
}

// handleAckAck matches the echoed ack number against the inflight-ACK
// queue and, on a match, folds the measured RTT sample into c's estimator.
func (s *Server) handleAckAck(c *conn.Connection, p protocol.AckAckPacket) {
	sentAt, matched := c.PopInflightAcksUpTo(p.AcknowledgementNumber(), func(a, b uint32) int {
		return int(serial.Cmp(a, b, serial.SequenceBits))
	})
	if !matched {
		return
	}
	sample := time.Since(sentAt).Microseconds()
	if sample < 0 {
		sample = 0
	}
	c.RTT.Update(uint32(sample))
}

// handleNak records the reported loss and replies with a DropRequest
// spanning the lost range instead of retransmitting: the peer skips
// ahead rather than waiting on a re-send.
func (s *Server) handleNak(c *conn.Connection, rt *connRuntime, p protocol.NakPacket) {
	if len(p.Lost) == 0 {
		return
	}

	var total uint32
	first := p.Lost[0].First()
	last := p.Lost[0].Last()
	for _, sn := range p.Lost {
		total += sn.Len()
		if serial.Cmp(sn.First(), first, serial.SequenceBits) == serial.Less {
			first = sn.First()
		}
		if serial.Cmp(sn.Last(), last, serial.SequenceBits) == serial.Greater {
			last = sn.Last()
		}
		c.RecordLost(sn.First(), sn.Last())
	}
	c.Metrics.IncLost(uint64(total))
	s.Stats.IncLost(int64(total))
	c.Metrics.IncNaksHandled()

	drop := protocol.NewDropRequestPacket()
	drop.Header.DestinationSocketID = c.ID.ClientSocketID
	drop.Header.Timestamp = c.Timestamp()
	drop.FirstPacketSequenceNum = first
	drop.LastPacketSequenceNum = last

	if _, err := s.udpConn.WriteToUDP(drop.Encode(), rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: drop-request write failed: %v", err)
		return
	}
	s.Stats.IncTX(int(protocol.ControlTypeDropRequest))
}

// closeConnection runs once per connection, however it ends (explicit
// Shutdown, reaper eviction, or its own panic recovery): it flushes
// metrics, releases the session-manager sink/stream, and removes the
// connection from the pool and runtime registry.
func (s *Server) closeConnection(c *conn.Connection, rt *connRuntime) {
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.reorderBuf != nil {
		rt.reorderBuf.Close()
	}
	if rt.sink != nil {
		_ = rt.sink.Close()
	}
	if rt.stream != nil {
		_ = rt.stream.Close()
	}
	if rt.retransmit != nil {
		rt.retransmit.Clear()
	}

	s.pool.Delete(c.ID.ServerSocketID)
	s.deleteRuntime(c.ID.ServerSocketID)
	s.Stats.SetConnectionMetrics(c.ID.ServerSocketID, toConnectionSnapshot(c))
	s.Stats.RemoveConnectionMetrics(c.ID.ServerSocketID)
	s.Stats.IncConnectionsReaped()
	s.Stats.SetLiveConnections(int64(s.pool.Len()))
	log.WithField("conn", c.ID).Info("srt: connection closed")
}

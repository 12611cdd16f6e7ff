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

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/conn"
	"github.com/facebookincubator/srt4u/srt/protocol"
	"github.com/facebookincubator/srt4u/srt/serial"
	"github.com/facebookincubator/srt4u/srt/session"
)

// runSender is the per-requester send loop: it pulls buffers from the
// session stream and emits each as a single, unfragmented, in-order data
// packet. It exits when the stream is exhausted, ctx is canceled, or c is
// shut down (Shutdown packet or reaper eviction), whichever comes first.
//
// A panic here must not take the rest of the server down with it: recover
// and shut the connection down cleanly, same as any other fatal per-
// connection failure.
func (s *Server) runSender(ctx context.Context, c *conn.Connection, rt *connRuntime) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("conn", c.ID).Errorf("srt: sender panic: %v", r)
		}
		c.Shutdown()
	}()

	for {
		select {
		case <-c.ShutdownCh():
			return
		case <-ctx.Done():
			return
		default:
		}

		buf, err := rt.stream.Next(ctx)
		if err != nil {
			if !errors.Is(err, session.ErrStreamExhausted) && ctx.Err() == nil {
				log.WithField("conn", c.ID).Debugf("srt: stream ended: %v", err)
			}
			return
		}

		s.sendData(c, rt, buf)
	}
}

// sendData allocates the next sequence and message number, encodes an
// unfragmented in-order data packet, writes it to the UDP socket, and
// records it in the retransmission ring for later NAK handling.
func (s *Server) sendData(c *conn.Connection, rt *connRuntime, buf []byte) {
	seq := c.NextServerSequence()
	msgNum := rt.msgNum
	rt.msgNum = serial.Add(rt.msgNum, 1, serial.MessageBits)

	var dp protocol.DataPacket
	dp.Header.DestinationSocketID = c.ID.ClientSocketID
	dp.Header.Timestamp = c.Timestamp()
	dp.Data = buf
	dp.SetPacketSequenceNumber(seq)
	dp.SetPacketPositionFlag(protocol.PacketPositionFull)
	dp.SetOrderFlag(true)
	dp.SetRetransmissionFlag(false)
	dp.SetMessageNumber(msgNum)

	encoded := dp.Encode()
	if _, err := s.udpConn.WriteToUDP(encoded, rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: data write failed: %v", err)
		return
	}

	if rt.retransmit != nil {
		rt.retransmit.Push(seq, buf)
	}
	c.Metrics.AddSent(1, uint64(len(encoded)))
	s.Stats.IncTX(-1)
}

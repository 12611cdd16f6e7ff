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
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/conn"
	"github.com/facebookincubator/srt4u/srt/protocol"
	"github.com/facebookincubator/srt4u/srt/reorder"
	"github.com/facebookincubator/srt4u/srt/ring"
	"github.com/facebookincubator/srt4u/srt/serial"
	"github.com/facebookincubator/srt4u/srt/session"
)

// randomUint31 draws a value uniformly from [0, 1<<31) using crypto/rand,
// the "PRNG output masked to 31 bits" the SYN cookie and initial sequence
// number both want.
func randomUint31() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read failing means the platform's entropy source
		// is broken; a connection with a weak cookie is still better
		// than refusing to serve at all.
		log.Warningf("srt: crypto/rand unavailable, falling back to a fixed cookie: %v", err)
		return 1
	}
	return binary.BigEndian.Uint32(b[:]) & 0x7FFFFFFF
}

// handleInduction validates an induction handshake's required literal
// fields, allocates a new connection in StateInduction, and responds with
// the server's SYN cookie. Any validation failure is a silent drop.
func (s *Server) handleInduction(hp protocol.HandshakePacket, addr *net.UDPAddr) {
	if hp.Version != 4 || hp.EncryptionField != 0 || hp.ExtensionField != 2 ||
		hp.SynCookie != 0 || hp.HandshakeType != protocol.HandshakeTypeInduction {
		return
	}

	socketID := s.allocSocketID()
	synCookie := randomUint31()
	initialSeq := randomUint31()

	id := conn.ID{Addr: addr.String(), ServerSocketID: socketID, ClientSocketID: hp.SRTSocketID}
	c := conn.New(id, synCookie, initialSeq, s.Config.InboundQueue)
	s.pool.Put(socketID, c)
	s.putRuntime(socketID, &connRuntime{addr: addr, initialSeq: initialSeq})

	resp := protocol.NewHandshakePacket()
	resp.Header.DestinationSocketID = hp.SRTSocketID
	resp.Header.Timestamp = c.Timestamp()
	resp.Version = 5
	resp.ExtensionField = protocol.ExtensionFieldMagic
	resp.HandshakeType = protocol.HandshakeTypeInduction
	resp.SRTSocketID = socketID
	resp.SynCookie = synCookie
	resp.MTU = defaultMTU
	resp.FlowWindowSize = defaultFlowWindow
	resp.PeerIP = addr.IP.To16()

	if _, err := s.udpConn.WriteToUDP(resp.Encode(), addr); err != nil {
		log.WithField("addr", addr).Debugf("srt: induction response write failed: %v", err)
		return
	}
	s.Stats.IncTX(int(protocol.ControlTypeHandshake))
	log.WithField("conn", id).Debug("srt: induction accepted")
}

// handleConclusion validates a conclusion handshake against the
// tentative connection c created during induction, binds the connection
// to the session manager, and either promotes c to StateDone (spawning
// its worker goroutines) or sends a rejection handshake.
func (s *Server) handleConclusion(c *conn.Connection, hp protocol.HandshakePacket) {
	if c.State() != conn.StateInduction {
		return
	}
	if hp.Version != 5 || hp.EncryptionField != 0 ||
		hp.HandshakeType != protocol.HandshakeTypeConclusion || hp.SynCookie != c.SynCookie {
		return
	}

	rt, ok := s.getRuntime(c.ID.ServerSocketID)
	if !ok {
		return
	}

	// The peer's initial sequence number seeds the in-order tracker one
	// below its first data packet, so the first full ACK acknowledges
	// initial+1 only once that packet has actually arrived.
	c.SetClientSequence(serial.Sub(hp.InitialPacketSequenceNumber, 1, serial.SequenceBits))

	var sid string
	for _, ext := range hp.Extensions {
		if sc, ok := ext.Content.(protocol.StreamIDContent); ok {
			sid = sc.Value
		}
	}
	ssid, err := protocol.ParseStandardStreamID(sid)
	if err != nil {
		s.rejectHandshake(c, rt, protocol.RejectionUnknown)
		s.abortTentative(c)
		return
	}
	resource, err := strconv.ParseUint(ssid.Resource(), 16, 64)
	if err != nil {
		s.rejectHandshake(c, rt, protocol.RejectionUnknown)
		s.abortTentative(c)
		return
	}
	token := ssid.Session()
	mode := ssid.Mode()

	ctx, cancel := context.WithCancel(context.Background())
	rt.cancel = cancel

	switch mode {
	case "publish":
		sink, err := s.Sessions.Publish(ctx, resource, token)
		if err != nil {
			cancel()
			s.rejectHandshake(c, rt, rejectionFor(err))
			s.abortTentative(c)
			return
		}
		c.Mode = conn.ModePublish
		rt.sink = sink
		rt.reorderBuf = reorder.New(s.Config.Latency(), sink, &dropObserver{c: c, stats: s.Stats})
	case "request":
		stream, err := s.Sessions.Request(ctx, resource, token)
		if err != nil {
			cancel()
			s.rejectHandshake(c, rt, rejectionFor(err))
			s.abortTentative(c)
			return
		}
		c.Mode = conn.ModeRequest
		rt.stream = stream
		rt.retransmit = ring.New(s.Config.RetransmitCapacity)
		rt.msgNum = 1
	default:
		cancel()
		s.rejectHandshake(c, rt, protocol.RejectionUnknown)
		s.abortTentative(c)
		return
	}

	resp := protocol.NewHandshakePacket()
	resp.Header.DestinationSocketID = c.ID.ClientSocketID
	resp.Header.Timestamp = c.Timestamp()
	resp.Version = 5
	resp.HandshakeType = protocol.HandshakeTypeConclusion
	resp.SynCookie = 0
	resp.SRTSocketID = c.ID.ServerSocketID
	resp.InitialPacketSequenceNumber = rt.initialSeq
	resp.MTU = defaultMTU
	resp.FlowWindowSize = defaultFlowWindow
	resp.PeerIP = rt.addr.IP.To16()
	resp.Extensions = []protocol.Extension{{
		Type: protocol.ExtensionTypeHSResp,
		Content: protocol.HSExtension{
			Version:        0x00010502,
			Flags:          protocol.HSFlagTSBPDSnd | protocol.HSFlagTSBPDRcv | protocol.HSFlagTLPktDrop | protocol.HSFlagRexmitFlag,
			TSBPDDelayRecv: uint16(s.Config.Latency().Milliseconds()),
			TSBPDDelaySend: uint16(s.Config.Latency().Milliseconds()),
		},
	}}

	if _, err := s.udpConn.WriteToUDP(resp.Encode(), rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: conclusion response write failed: %v", err)
	} else {
		s.Stats.IncTX(int(protocol.ControlTypeHandshake))
	}

	c.SetState(conn.StateDone)
	s.Stats.IncConnectionsOpened()
	s.Stats.SetLiveConnections(int64(s.pool.Len()))
	log.WithField("conn", c.ID).WithField("mode", mode).Info("srt: connection established")

	go s.runConnection(ctx, c, rt)
	if mode == "request" {
		go s.runSender(ctx, c, rt)
	}
}

// abortTentative removes a connection that failed conclusion-phase
// authentication/resource binding from the pool and runtime registry,
// per the "session-manager errors remove the tentative connection"
// error-handling rule.
func (s *Server) abortTentative(c *conn.Connection) {
	s.pool.Delete(c.ID.ServerSocketID)
	s.deleteRuntime(c.ID.ServerSocketID)
}

func (s *Server) rejectHandshake(c *conn.Connection, rt *connRuntime, code protocol.HandshakeType) {
	resp := protocol.NewHandshakePacket()
	resp.Header.DestinationSocketID = c.ID.ClientSocketID
	resp.Header.Timestamp = c.Timestamp()
	resp.Version = 5
	resp.HandshakeType = code
	resp.SRTSocketID = c.ID.ServerSocketID

	if _, err := s.udpConn.WriteToUDP(resp.Encode(), rt.addr); err != nil {
		log.WithField("conn", c.ID).Debugf("srt: rejection write failed: %v", err)
		return
	}
	s.Stats.IncHandshakeRejected()
	log.WithField("conn", c.ID).WithField("code", code).Info("srt: handshake rejected")
}

func rejectionFor(err error) protocol.HandshakeType {
	switch {
	case errors.Is(err, session.ErrInvalidResourceID):
		return protocol.RejectionUnknown
	case errors.Is(err, session.ErrInvalidCredentials):
		return protocol.RejectionBadSecret
	default:
		return protocol.RejectionSystem
	}
}

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

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/protocol"
)

// JSONStats is the default Stats implementation: an in-process counter
// set exposed as a flat JSON map over HTTP.
type JSONStats struct {
	report counters
	counters

	connMu sync.Mutex
	conns  map[uint32]ConnectionSnapshot
}

// NewJSONStats returns a JSONStats with every counter at zero.
func NewJSONStats() *JSONStats {
	s := &JSONStats{conns: make(map[uint32]ConnectionSnapshot)}
	s.init()
	s.report.init()
	return s
}

// Start runs the HTTP server that serves the latest snapshot.
func (s *JSONStats) Start(monitoringPort int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/counters", s.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Infof("starting stats json server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("failed to start stats listener: %v", err)
	}
}

// Snapshot copies the live counters into the reportable set.
func (s *JSONStats) Snapshot() {
	s.rx.copy(&s.report.rx)
	s.tx.copy(&s.report.tx)
	s.report.connectionsOpened = atomic.LoadInt64(&s.connectionsOpened)
	s.report.connectionsReaped = atomic.LoadInt64(&s.connectionsReaped)
	s.report.handshakeRejected = atomic.LoadInt64(&s.handshakeRejected)
	s.report.retransmitted = atomic.LoadInt64(&s.retransmitted)
	s.report.lost = atomic.LoadInt64(&s.lost)
	s.report.late = atomic.LoadInt64(&s.late)
	s.report.duplicate = atomic.LoadInt64(&s.duplicate)
	s.report.decodeErrors = atomic.LoadInt64(&s.decodeErrors)
	s.report.liveConnections = atomic.LoadInt64(&s.liveConnections)
}

func (s *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	m := s.report.toMap()
	s.connMu.Lock()
	for id, snap := range s.conns {
		prefix := fmt.Sprintf("conn.%d.", id)
		m[prefix+"packets_recv"] = snap.PacketsReceived
		m[prefix+"packets_sent"] = snap.PacketsSent
		m[prefix+"bytes_recv"] = snap.BytesReceived
		m[prefix+"bytes_sent"] = snap.BytesSent
		m[prefix+"packets_retransmitted"] = snap.PacketsRetransmitted
		m[prefix+"packets_dropped"] = snap.PacketsDropped
		m[prefix+"packets_lost"] = snap.PacketsLost
		m[prefix+"packets_late"] = snap.PacketsLate
		m[prefix+"packets_duplicate"] = snap.PacketsDuplicate
		m[prefix+"acks_sent"] = snap.AcksSent
		m[prefix+"rtt"] = snap.RTT
		m[prefix+"rtt_variance"] = snap.RTTVariance
	}
	s.connMu.Unlock()

	js, err := json.Marshal(m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("failed to reply: %v", err)
	}
}

// Reset atomically sets every counter back to 0.
func (s *JSONStats) Reset() { s.reset() }

func (s *JSONStats) IncRX(controlType int) { s.rx.inc(controlType) }
func (s *JSONStats) IncTX(controlType int) { s.tx.inc(controlType) }

func (s *JSONStats) IncConnectionsOpened() { atomicInc(&s.connectionsOpened) }
func (s *JSONStats) IncConnectionsReaped() { atomicInc(&s.connectionsReaped) }
func (s *JSONStats) IncHandshakeRejected() { atomicInc(&s.handshakeRejected) }
func (s *JSONStats) IncRetransmitted()     { atomicInc(&s.retransmitted) }
func (s *JSONStats) IncLate()              { atomicInc(&s.late) }
func (s *JSONStats) IncDuplicate()         { atomicInc(&s.duplicate) }
func (s *JSONStats) IncDecodeErrors()      { atomicInc(&s.decodeErrors) }

func (s *JSONStats) IncLost(n int64) { atomicAdd(&s.lost, n) }

func (s *JSONStats) SetLiveConnections(n int64) { atomicSet(&s.liveConnections, n) }

// SetConnectionMetrics records the latest snapshot for connection id.
func (s *JSONStats) SetConnectionMetrics(id uint32, snap ConnectionSnapshot) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conns[id] = snap
}

// RemoveConnectionMetrics drops id's row once its connection has closed.
func (s *JSONStats) RemoveConnectionMetrics(id uint32) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, id)
}

// toMap flattens the report's counters into the same shape every
// monitoring consumer (the admin CLI, a Prometheus scrape) expects.
func (c *counters) toMap() map[string]int64 {
	res := make(map[string]int64)

	for _, t := range c.rx.keys() {
		name := controlTypeName(t)
		res[fmt.Sprintf("rx.%s", name)] = c.rx.load(t)
	}
	for _, t := range c.tx.keys() {
		name := controlTypeName(t)
		res[fmt.Sprintf("tx.%s", name)] = c.tx.load(t)
	}

	res["connections.opened"] = c.connectionsOpened
	res["connections.reaped"] = c.connectionsReaped
	res["connections.live"] = c.liveConnections
	res["handshake.rejected"] = c.handshakeRejected
	res["packets.retransmitted"] = c.retransmitted
	res["packets.lost"] = c.lost
	res["packets.late"] = c.late
	res["packets.duplicate"] = c.duplicate
	res["errors.decode"] = c.decodeErrors

	return res
}

// controlTypeName renders a control type (or -1 for data packets) the way
// the JSON report keys it.
func controlTypeName(t int) string {
	if t < 0 {
		return "data"
	}
	switch protocol.ControlPacketType(t) {
	case protocol.ControlTypeHandshake:
		return "handshake"
	case protocol.ControlTypeKeepalive:
		return "keepalive"
	case protocol.ControlTypeAck:
		return "ack"
	case protocol.ControlTypeNak:
		return "nak"
	case protocol.ControlTypeCongestionWarning:
		return "congestion_warning"
	case protocol.ControlTypeShutdown:
		return "shutdown"
	case protocol.ControlTypeAckAck:
		return "ackack"
	case protocol.ControlTypeDropRequest:
		return "drop_request"
	case protocol.ControlTypePeerError:
		return "peer_error"
	default:
		return fmt.Sprintf("unknown_%d", t)
	}
}

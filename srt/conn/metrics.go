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

package conn

import "sync/atomic"

// Metrics holds a connection's lifetime packet/byte counters. Every field
// is updated with atomic ops rather than a lock, since the dispatcher,
// sender, and reaper goroutines all touch different counters
// concurrently and none of them need a consistent joint snapshot.
type Metrics struct {
	PacketsReceived uint64
	PacketsSent     uint64
	BytesReceived   uint64
	BytesSent       uint64

	PacketsRetransmitted uint64
	PacketsDropped       uint64 // backpressure: inbound queue was full
	PacketsLost          uint64
	PacketsLate          uint64
	PacketsDuplicate     uint64
	BytesDropped         uint64

	AcksSent    uint64
	NaksHandled uint64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AddReceived(packets, bytes uint64) {
	atomic.AddUint64(&m.PacketsReceived, packets)
	atomic.AddUint64(&m.BytesReceived, bytes)
}

func (m *Metrics) AddSent(packets, bytes uint64) {
	atomic.AddUint64(&m.PacketsSent, packets)
	atomic.AddUint64(&m.BytesSent, bytes)
}

func (m *Metrics) IncRetransmitted() { atomic.AddUint64(&m.PacketsRetransmitted, 1) }
func (m *Metrics) IncDropped()       { atomic.AddUint64(&m.PacketsDropped, 1) }
func (m *Metrics) IncLost(n uint64)  { atomic.AddUint64(&m.PacketsLost, n) }
func (m *Metrics) IncLate()          { atomic.AddUint64(&m.PacketsLate, 1) }
func (m *Metrics) IncDuplicate()     { atomic.AddUint64(&m.PacketsDuplicate, 1) }

func (m *Metrics) AddBytesDropped(n uint64) { atomic.AddUint64(&m.BytesDropped, n) }

func (m *Metrics) IncAcksSent()    { atomic.AddUint64(&m.AcksSent, 1) }
func (m *Metrics) IncNaksHandled() { atomic.AddUint64(&m.NaksHandled, 1) }

// Snapshot is a point-in-time copy of a Metrics, safe to hand to a
// reporter without further synchronization.
type Snapshot struct {
	PacketsReceived      uint64
	PacketsSent          uint64
	BytesReceived        uint64
	BytesSent            uint64
	PacketsRetransmitted uint64
	PacketsDropped       uint64
	PacketsLost          uint64
	PacketsLate          uint64
	PacketsDuplicate     uint64
	BytesDropped         uint64
	AcksSent             uint64
	NaksHandled          uint64
}

// Snapshot reads every counter atomically and returns the result as a
// plain struct.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		PacketsReceived:      atomic.LoadUint64(&m.PacketsReceived),
		PacketsSent:          atomic.LoadUint64(&m.PacketsSent),
		BytesReceived:        atomic.LoadUint64(&m.BytesReceived),
		BytesSent:            atomic.LoadUint64(&m.BytesSent),
		PacketsRetransmitted: atomic.LoadUint64(&m.PacketsRetransmitted),
		PacketsDropped:       atomic.LoadUint64(&m.PacketsDropped),
		PacketsLost:          atomic.LoadUint64(&m.PacketsLost),
		PacketsLate:          atomic.LoadUint64(&m.PacketsLate),
		PacketsDuplicate:     atomic.LoadUint64(&m.PacketsDuplicate),
		BytesDropped:         atomic.LoadUint64(&m.BytesDropped),
		AcksSent:             atomic.LoadUint64(&m.AcksSent),
		NaksHandled:          atomic.LoadUint64(&m.NaksHandled),
	}
}

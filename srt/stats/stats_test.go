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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/facebookincubator/srt4u/srt/protocol"
)

func TestJSONStatsSnapshotIsStableAcrossIncrements(t *testing.T) {
	s := NewJSONStats()
	s.IncRX(int(protocol.ControlTypeAck))
	s.IncRX(int(protocol.ControlTypeAck))
	s.IncTX(int(protocol.ControlTypeHandshake))
	s.IncConnectionsOpened()
	s.SetLiveConnections(3)

	s.Snapshot()

	m := s.report.toMap()
	require.Equal(t, int64(2), m["rx.ack"])
	require.Equal(t, int64(1), m["tx.handshake"])
	require.Equal(t, int64(1), m["connections.opened"])
	require.Equal(t, int64(3), m["connections.live"])

	// a further increment must not affect the already-taken snapshot
	s.IncRX(int(protocol.ControlTypeAck))
	m2 := s.report.toMap()
	require.Equal(t, int64(2), m2["rx.ack"])
}

func TestJSONStatsReset(t *testing.T) {
	s := NewJSONStats()
	s.IncRX(int(protocol.ControlTypeNak))
	s.IncLost(5)
	s.Reset()
	s.Snapshot()
	m := s.report.toMap()
	require.Equal(t, int64(0), m["packets.lost"])
	require.Equal(t, int64(0), m["rx.nak"])
}

func TestControlTypeNameDataPacket(t *testing.T) {
	require.Equal(t, "data", controlTypeName(-1))
	require.Equal(t, "ack", controlTypeName(int(protocol.ControlTypeAck)))
}

func TestMetricNameFlattensCounterKeys(t *testing.T) {
	require.Equal(t, "conn_3_packets_recv", metricName("conn.3.packets_recv"))
	require.Equal(t, "tx_drop_request", metricName("tx.drop-request"))
}

func TestCollectorEmitsCountersAsGauges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rx.data": 7, "conn.3.packets_recv": 2}`))
	}))
	defer srv.Close()

	c := NewCollector(0)
	c.countersURL = srv.URL

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(c))

	mfs, err := registry.Gather()
	require.NoError(t, err)

	got := make(map[string]float64)
	for _, mf := range mfs {
		got[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	require.Equal(t, 7.0, got["rx_data"])
	require.Equal(t, 2.0, got["conn_3_packets_recv"])
}

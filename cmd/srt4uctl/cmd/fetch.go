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

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// counterSet is the flattened map srt4u's stats.JSONStats serves at
// /counters: process-wide keys like "rx.data" alongside per-connection
// keys like "conn.<id>.packets_recv".
type counterSet map[string]int64

func fetchCounters(endpoint string) (counterSet, error) {
	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Get(strings.TrimRight(endpoint, "/") + "/counters")
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %s", endpoint, resp.Status)
	}

	var cs counterSet
	if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
		return nil, fmt.Errorf("decoding counters: %w", err)
	}
	return cs, nil
}

// connectionRow is one connection's slice of the flattened counter map,
// keyed out of the "conn.<id>.<field>" namespace.
type connectionRow struct {
	id                                                 uint32
	packetsRecv, packetsSent, bytesRecv, bytesSent     int64
	packetsRetransmitted, packetsDropped, packetsLost  int64
	packetsLate, packetsDuplicate, acksSent            int64
}

// connectionRows groups cs's per-connection keys into one row per
// connection id, sorted by id for stable output.
func connectionRows(cs counterSet) []connectionRow {
	byID := make(map[uint32]*connectionRow)
	for k, v := range cs {
		if !strings.HasPrefix(k, "conn.") {
			continue
		}
		rest := strings.TrimPrefix(k, "conn.")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			continue
		}
		id64, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			continue
		}
		id := uint32(id64)
		row, ok := byID[id]
		if !ok {
			row = &connectionRow{id: id}
			byID[id] = row
		}
		switch parts[1] {
		case "packets_recv":
			row.packetsRecv = v
		case "packets_sent":
			row.packetsSent = v
		case "bytes_recv":
			row.bytesRecv = v
		case "bytes_sent":
			row.bytesSent = v
		case "packets_retransmitted":
			row.packetsRetransmitted = v
		case "packets_dropped":
			row.packetsDropped = v
		case "packets_lost":
			row.packetsLost = v
		case "packets_late":
			row.packetsLate = v
		case "packets_duplicate":
			row.packetsDuplicate = v
		case "acks_sent":
			row.acksSent = v
		}
	}

	rows := make([]connectionRow, 0, len(byID))
	for _, row := range byID {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	return rows
}

// healthy reports whether row shows no loss/drop/duplicate activity, the
// signal the connections table uses to color a row's id cell.
func (r connectionRow) healthy() bool {
	return r.packetsLost == 0 && r.packetsDropped == 0 && r.packetsDuplicate == 0
}

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
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(connectionsCmd)
}

func connectionsRun(endpoint string) error {
	cs, err := fetchCounters(endpoint)
	if err != nil {
		return err
	}
	rows := connectionRows(cs)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{
		"id", "recv", "sent", "bytes recv", "bytes sent", "retx", "dropped", "lost", "late", "dup", "acks",
	})

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, r := range rows {
		id := fmt.Sprintf("%d", r.id)
		if r.healthy() {
			id = green(id)
		} else {
			id = red(id)
		}
		table.Append([]string{
			id,
			fmt.Sprintf("%d", r.packetsRecv),
			fmt.Sprintf("%d", r.packetsSent),
			fmt.Sprintf("%d", r.bytesRecv),
			fmt.Sprintf("%d", r.bytesSent),
			fmt.Sprintf("%d", r.packetsRetransmitted),
			fmt.Sprintf("%d", r.packetsDropped),
			fmt.Sprintf("%d", r.packetsLost),
			fmt.Sprintf("%d", r.packetsLate),
			fmt.Sprintf("%d", r.packetsDuplicate),
			fmt.Sprintf("%d", r.acksSent),
		})
	}
	table.Render()

	if len(rows) == 0 {
		fmt.Println("no live connections")
	}
	return nil
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List live SRT connections and their per-connection counters",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := connectionsRun(rootEndpointFlag); err != nil {
			log.Fatal(err)
		}
	},
}

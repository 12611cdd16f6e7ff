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
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func statsRun(endpoint string) error {
	cs, err := fetchCounters(endpoint)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(cs))
	for k := range cs {
		if strings.HasPrefix(k, "conn.") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"counter", "value"})
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%d", cs[k])})
	}
	table.Render()
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print process-wide srt4u counters",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := statsRun(rootEndpointFlag); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}

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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootCmd is srt4uctl's entry point, exported so it can be extended
// without touching the subcommands below.
var RootCmd = &cobra.Command{
	Use:   "srt4uctl",
	Short: "Inspection CLI for a running srt4u proxy",
}

var (
	rootEndpointFlag string
	rootVerboseFlag  bool
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&rootEndpointFlag, "endpoint", "e", "http://127.0.0.1:8888", "srt4u monitoring endpoint")
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
}

// ConfigureVerbosity sets the log level from the parsed persistent flags.
// Every subcommand's Run must call this first.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

// Execute is the main entry point for the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

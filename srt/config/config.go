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

/*
Package config implements srt4u's configuration surface, split into
process settings set from command-line flags (StaticConfig) and engine
tunables loaded from an optional YAML file (DynamicConfig). Both are read
once at startup; nothing reloads them while the process runs.
*/
package config

import (
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// StaticConfig holds options that require a process restart to change.
type StaticConfig struct {
	ListenAddr     string
	DebugAddr      string
	ConfigFile     string
	LogLevel       string
	MonitoringPort int
	PidFile        string
	RecvQueueSize  int
	InboundQueue   int
}

// DynamicConfig holds the engine tunables that can be loaded from a YAML
// file. They are read at startup and not reloaded while the process runs.
type DynamicConfig struct {
	// LatencyMs is the receive-side reorder/latency buffer deadline.
	LatencyMs int `yaml:"latency_ms"`
	// RetransmitCapacity is the retransmission ring buffer's packet
	// capacity.
	RetransmitCapacity int `yaml:"retransmit_capacity"`
	// AvailableBufferSize is advertised to peers as the receive buffer
	// size, in packets.
	AvailableBufferSize int `yaml:"available_buffer_size"`
	// IdleTimeout closes a connection that has received nothing for this
	// long.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// AckInterval is how often a full ACK is emitted per connection.
	AckInterval time.Duration `yaml:"ack_interval"`
}

// Config is the full configuration surface a Server is constructed from.
type Config struct {
	StaticConfig
	DynamicConfig
}

// Latency returns LatencyMs as a time.Duration.
func (dc *DynamicConfig) Latency() time.Duration {
	return time.Duration(dc.LatencyMs) * time.Millisecond
}

// ReadDynamicConfig loads a DynamicConfig from a YAML file at path.
func ReadDynamicConfig(path string) (*DynamicConfig, error) {
	dc := &DynamicConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

// Write marshals dc as YAML to path.
func (dc *DynamicConfig) Write(path string) error {
	data, err := yaml.Marshal(dc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultDynamicConfig returns the values a fresh server starts with
// absent a -config file, matching the defaults named in the component's
// operational description.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		LatencyMs:           120,
		RetransmitCapacity:  8192,
		AvailableBufferSize: 5000,
		IdleTimeout:         5 * time.Second,
		AckInterval:         10 * time.Millisecond,
	}
}

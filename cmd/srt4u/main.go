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

package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebookincubator/srt4u/srt/config"
	"github.com/facebookincubator/srt4u/srt/server"
	"github.com/facebookincubator/srt4u/srt/session"
	"github.com/facebookincubator/srt4u/srt/stats"
)

func main() {
	c := &config.Config{DynamicConfig: config.DefaultDynamicConfig()}

	flag.StringVar(&c.ListenAddr, "listen", ":4200", "UDP address to listen for SRT connections on")
	flag.IntVar(&c.MonitoringPort, "monitoringport", 8888, "Port to run the monitoring server on")
	flag.StringVar(&c.DebugAddr, "pprofaddr", "", "host:port for the pprof server to bind")
	flag.StringVar(&c.ConfigFile, "config", "", "Path to a YAML config with dynamic settings")
	flag.StringVar(&c.LogLevel, "loglevel", "info", "Log level. Can be: debug, info, warning, error")
	flag.StringVar(&c.PidFile, "pidfile", "/var/run/srt4u.pid", "Pid file location")
	flag.IntVar(&c.RecvQueueSize, "recvbuf", 0, "UDP socket receive and send buffer size in bytes (0 leaves the OS default)")
	flag.IntVar(&c.InboundQueue, "connqueue", 256, "Per-connection inbound packet queue depth")
	promPort := flag.Int("promport", 0, "Port to serve Prometheus-format counters on (0 disables the exporter)")
	flag.Parse()

	switch c.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("srt4u: unrecognized log level: %v", c.LogLevel)
	}

	if c.ConfigFile != "" {
		dc, err := config.ReadDynamicConfig(c.ConfigFile)
		if err != nil {
			log.Fatalf("srt4u: reading config file: %v", err)
		}
		c.DynamicConfig = *dc
	}

	if c.DebugAddr != "" {
		log.Warningf("srt4u: starting profiler on %s", c.DebugAddr)
		go func() {
			log.Println(http.ListenAndServe(c.DebugAddr, nil))
		}()
	}

	if err := os.WriteFile(c.PidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		log.Warningf("srt4u: could not write pidfile %s: %v", c.PidFile, err)
	}

	st := stats.NewJSONStats()
	go st.Start(c.MonitoringPort)

	if *promPort != 0 {
		go func() {
			log.Fatalf("srt4u: prometheus listener: %v", stats.ServePrometheus(*promPort, c.MonitoringPort))
		}()
	}

	// The in-memory session manager fans published buffers out to every
	// current requester of the same resource. Swap this for a real
	// session manager (file-backed, GStreamer) without changing anything
	// in the srt/server package.
	sm := session.NewMemory()

	s := server.New(c, st, sm)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("srt4u: received signal %v, shutting down", sig)
		cancel()
	}()

	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("srt4u: server run failed: %v", err)
	}

	// Give in-flight per-connection goroutines a moment to flush their
	// metrics before the process exits.
	time.Sleep(100 * time.Millisecond)
}

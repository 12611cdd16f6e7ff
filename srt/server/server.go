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
Package server wires the protocol, conn, reorder, ring, and session
packages into a running SRT proxy: a UDP dispatcher, a connection pool
reaper, and the per-connection handshake/ack/data handlers that drive
traffic between a publisher and a requester through the session manager.
*/
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/facebookincubator/srt4u/srt/config"
	"github.com/facebookincubator/srt4u/srt/conn"
	"github.com/facebookincubator/srt4u/srt/session"
	"github.com/facebookincubator/srt4u/srt/stats"
)

// defaultMTU and defaultFlowWindow are advertised in every induction
// response; neither is exposed as a config knob.
const (
	defaultMTU         = 1500
	defaultFlowWindow  = 8192
	reaperInterval     = 5 * time.Second
	statsSnapshotEvery = 1 * time.Second
	readDeadlineStep   = 500 * time.Millisecond
)

// Server is the SRT proxy: one UDP socket, a connection pool, and the
// session manager every conclusion handshake binds a connection to.
type Server struct {
	Config   *config.Config
	Stats    stats.Stats
	Sessions session.Manager

	pool    *conn.Pool
	udpConn *net.UDPConn

	nextSocketID uint32 // atomic, monotonic, never 0

	rtMu     sync.RWMutex
	runtimes map[uint32]*connRuntime

	readyOnce sync.Once
	ready     chan struct{}
}

// New returns a Server ready to Start. Sessions must be non-nil; it is
// the only collaborator the handshake conclusion handler hands off to.
func New(cfg *config.Config, st stats.Stats, sm session.Manager) *Server {
	return &Server{
		Config:   cfg,
		Stats:    st,
		Sessions: sm,
		pool:     conn.NewPool(),
		runtimes: make(map[uint32]*connRuntime),
		ready:    make(chan struct{}),
	}
}

// LocalAddr blocks until Start has bound its listen socket, then returns
// its address. Intended for callers (tests, a "-listen :0" ephemeral-port
// caller) that need to know the bound port.
func (s *Server) LocalAddr() net.Addr {
	<-s.ready
	return s.udpConn.LocalAddr()
}

// Start binds the listen socket and runs the dispatcher, reaper, and
// stats-snapshot ticker under a single errgroup; it blocks until ctx is
// canceled or one of the supervised goroutines returns an error, in
// which case every other goroutine is canceled as well.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.Config.ListenAddr)
	if err != nil {
		return fmt.Errorf("srt: resolving listen address %q: %w", s.Config.ListenAddr, err)
	}
	udpConn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("srt: listening on %s: %w", addr, err)
	}
	defer udpConn.Close()

	if err := tuneSocketBuffers(udpConn, s.Config.RecvQueueSize); err != nil {
		log.Warningf("srt: could not tune socket buffers: %v", err)
	}
	s.udpConn = udpConn
	s.readyOnce.Do(func() { close(s.ready) })

	log.WithField("addr", udpConn.LocalAddr()).Info("srt: listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.dispatchLoop(gctx) })
	g.Go(func() error {
		conn.RunReaper(s.pool, reaperInterval, s.Config.IdleTimeout, gctx.Done(), s.onReap)
		return nil
	})
	g.Go(func() error { return s.statsLoop(gctx) })

	go func() {
		<-gctx.Done()
		udpConn.Close()
	}()

	return g.Wait()
}

// tuneSocketBuffers sets SO_RCVBUF/SO_SNDBUF on c's underlying fd to
// bufBytes. A non-positive bufBytes leaves the OS default untouched.
func tuneSocketBuffers(c *net.UDPConn, bufBytes int) error {
	if bufBytes <= 0 {
		return nil
	}
	sc, err := c.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}
	var opErr error
	if err := sc.Control(func(fd uintptr) {
		if opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bufBytes); opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bufBytes)
	}); err != nil {
		return err
	}
	return opErr
}

func (s *Server) statsLoop(ctx context.Context) error {
	ticker := time.NewTicker(statsSnapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Stats.Snapshot()
			s.pool.Each(func(id uint32, c *conn.Connection) {
				s.Stats.SetConnectionMetrics(id, toConnectionSnapshot(c))
			})
			s.Stats.SetLiveConnections(int64(s.pool.Len()))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// onReap logs every connection the reaper removed for idleness. The
// actual resource teardown (sink/stream close, runtime deregistration)
// happens in closeConnection, run by the connection's own goroutine once
// Pool.ReapIdle's Shutdown call closes its shutdown channel.
func (s *Server) onReap(ids []uint32) {
	for _, id := range ids {
		// A tentative connection that never concluded has no goroutine to
		// run closeConnection for it, so its runtime entry is released
		// here; for an established one this is a no-op ahead of its own
		// handler's teardown.
		s.deleteRuntime(id)
		log.WithField("conn", id).Info("srt: reaped idle connection")
	}
	s.Stats.SetLiveConnections(int64(s.pool.Len()))
}

func toConnectionSnapshot(c *conn.Connection) stats.ConnectionSnapshot {
	snap := c.Metrics.Snapshot()
	rtt, variance := c.RTT.Load()
	return stats.ConnectionSnapshot{
		PacketsReceived:      int64(snap.PacketsReceived),
		PacketsSent:          int64(snap.PacketsSent),
		BytesReceived:        int64(snap.BytesReceived),
		BytesSent:            int64(snap.BytesSent),
		PacketsRetransmitted: int64(snap.PacketsRetransmitted),
		PacketsDropped:       int64(snap.PacketsDropped),
		PacketsLost:          int64(snap.PacketsLost),
		PacketsLate:          int64(snap.PacketsLate),
		PacketsDuplicate:     int64(snap.PacketsDuplicate),
		AcksSent:             int64(snap.AcksSent),
		RTT:                  int64(rtt),
		RTTVariance:          int64(variance),
	}
}

func (s *Server) allocSocketID() uint32 {
	return atomic.AddUint32(&s.nextSocketID, 1)
}

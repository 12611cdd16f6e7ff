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

import (
	"sync"
	"time"
)

// Pool tracks every live connection keyed by its server-allocated socket
// id — the same id every inbound packet carries as its destination socket
// id, so the dispatcher can look a connection up without consulting the
// peer address or the client's socket id. A single Pool is shared between
// the dispatcher's recv loop (frequent reads, occasional inserts) and the
// reaper (periodic full scans), so it is guarded by an RWMutex rather than
// a plain Mutex.
type Pool struct {
	mu    sync.RWMutex
	conns map[uint32]*Connection
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[uint32]*Connection)}
}

// Get returns the connection allocated socketID, if any.
func (p *Pool) Get(socketID uint32) (*Connection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.conns[socketID]
	return c, ok
}

// Put inserts or replaces the connection for socketID.
func (p *Pool) Put(socketID uint32, c *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[socketID] = c
}

// Delete removes the connection for socketID, if present.
func (p *Pool) Delete(socketID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, socketID)
}

// Len returns the number of live connections.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// Each calls fn for every connection currently in the pool. fn must not
// call back into the Pool.
func (p *Pool) Each(fn func(uint32, *Connection)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for socketID, c := range p.conns {
		fn(socketID, c)
	}
}

// ReapIdle scans every connection and removes (shutting down first) any
// whose IdleSince exceeds idleTimeout. It returns the socket ids reaped,
// so the caller can log or account for them without re-acquiring the pool
// lock.
func (p *Pool) ReapIdle(idleTimeout time.Duration) []uint32 {
	var staleIDs []uint32
	var staleConns []*Connection
	p.mu.Lock()
	for socketID, c := range p.conns {
		if c.IdleSince() >= idleTimeout {
			staleIDs = append(staleIDs, socketID)
			staleConns = append(staleConns, c)
			delete(p.conns, socketID)
		}
	}
	p.mu.Unlock()

	// Shutdown runs outside the pool lock so a slow goroutine waiting on
	// ShutdownCh never blocks the sweep.
	for _, c := range staleConns {
		c.Shutdown()
	}
	return staleIDs
}

// RunReaper runs ReapIdle every interval until stop is closed, invoking
// onReap (if non-nil) with each sweep's reaped socket ids.
func RunReaper(p *Pool, interval, idleTimeout time.Duration, stop <-chan struct{}, onReap func([]uint32)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reaped := p.ReapIdle(idleTimeout)
			if len(reaped) > 0 && onReap != nil {
				onReap(reaped)
			}
		case <-stop:
			return
		}
	}
}

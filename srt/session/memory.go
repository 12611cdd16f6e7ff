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

package session

import (
	"context"
	"sync"
)

// subscriberQueueSize bounds each subscriber's buffered backlog. A
// subscriber that falls this far behind the publisher starts losing the
// oldest buffered payload rather than stalling the publisher, mirroring a
// lossy broadcast channel.
const subscriberQueueSize = 1024

// topic fans a single resource's published buffers out to every current
// requester, the way a broadcast channel does: each subscriber gets its
// own bounded queue, and a slow subscriber drops its own backlog rather
// than blocking the publisher or other subscribers.
type topic struct {
	mu          sync.Mutex
	subscribers map[*memoryStream]struct{}
}

func newTopic() *topic {
	return &topic{subscribers: make(map[*memoryStream]struct{})}
}

func (t *topic) subscribe() *memoryStream {
	s := &memoryStream{ch: make(chan []byte, subscriberQueueSize), closed: make(chan struct{}), topic: t}
	t.mu.Lock()
	t.subscribers[s] = struct{}{}
	t.mu.Unlock()
	return s
}

func (t *topic) unsubscribe(s *memoryStream) {
	t.mu.Lock()
	delete(t.subscribers, s)
	t.mu.Unlock()
}

func (t *topic) publish(buf []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for s := range t.subscribers {
		select {
		case s.ch <- buf:
		default:
			// subscriber backlog full: drop its oldest buffered payload to
			// make room, rather than blocking the publisher.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- buf:
			default:
			}
		}
	}
}

// Memory is an in-memory, process-local Manager: it holds no persisted
// state and loses every resource's backlog on restart. It exists so the
// engine runs end to end without an external media backend; a real
// deployment replaces it with a session manager backed by a file store or
// a media pipeline.
type Memory struct {
	mu     sync.Mutex
	topics map[uint64]*topic
}

// NewMemory returns an empty in-memory Manager.
func NewMemory() *Memory {
	return &Memory{topics: make(map[uint64]*topic)}
}

// Publish always succeeds for any resource/token pair: the in-memory
// manager does no credential checking, since it has no notion of an
// authority to check against. Publishing is what brings a resource into
// existence; it stays known for the life of the process.
func (m *Memory) Publish(ctx context.Context, resource uint64, token string) (Sink, error) {
	m.mu.Lock()
	t, ok := m.topics[resource]
	if !ok {
		t = newTopic()
		m.topics[resource] = t
	}
	m.mu.Unlock()
	return &memorySink{topic: t}, nil
}

// Request subscribes to a resource some publisher has already brought
// into existence; a resource nobody has ever published is unknown and
// yields ErrInvalidResourceID.
func (m *Memory) Request(ctx context.Context, resource uint64, token string) (Stream, error) {
	m.mu.Lock()
	t, ok := m.topics[resource]
	m.mu.Unlock()
	if !ok {
		return nil, ErrInvalidResourceID
	}
	return t.subscribe(), nil
}

type memorySink struct {
	topic  *topic
	closed bool
	mu     sync.Mutex
}

func (s *memorySink) Write(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerError
	}
	cp := append([]byte(nil), buf...)
	s.topic.publish(cp)
	return nil
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memoryStream struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
	topic  *topic
}

func (s *memoryStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case buf, ok := <-s.ch:
		if !ok {
			return nil, ErrStreamExhausted
		}
		return buf, nil
	case <-s.closed:
		return nil, ErrStreamExhausted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memoryStream) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.topic.unsubscribe(s)
	})
	return nil
}

// Package hub fans activity changes out to connected clients so feeds
// and unread badges refresh without polling.
package hub

import (
	"errors"
	"strings"
	"sync"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// Change is one pushed feed update.
type Change struct {
	Kind          string `json:"kind"`
	EventULID     string `json:"event_ulid,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	UnreadCount   int64  `json:"unread_count"`
	OccurredAt    string `json:"occurred_at,omitempty"`
}

type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Change
	subs   map[uint64]chan Change
	nextID uint64
}

type Subscription struct {
	hub    *Hub
	userID string
	id     uint64
	ch     chan Change
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers a change to every subscriber of the user's stream.
// Slow subscribers are skipped rather than blocked on.
func (h *Hub) Publish(userID string, change Change) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(userID)
	if key == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	stream.buffer = append(stream.buffer, change)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan Change, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe attaches to a user's stream and returns the replay buffer.
func (h *Hub) Subscribe(userID string) (*Subscription, []Change, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	key := strings.TrimSpace(userID)
	if key == "" {
		return nil, nil, errors.New("invalid_user")
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	if stream.subs == nil {
		stream.subs = make(map[uint64]chan Change)
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan Change, h.subscriberBuffer)
	stream.subs[id] = ch
	buffer := append([]Change(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{
		hub:    h,
		userID: key,
		id:     id,
		ch:     ch,
	}, buffer, nil
}

func (h *Hub) ensureStream(key string) *stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.streams[key]
	if !ok {
		s = &stream{}
		h.streams[key] = s
	}
	return s
}

// Events returns the subscriber's delivery channel.
func (s *Subscription) Events() <-chan Change {
	if s == nil {
		return nil
	}
	return s.ch
}

// Close detaches the subscriber from the stream.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.RLock()
		stream := s.hub.streams[s.userID]
		s.hub.mu.RUnlock()
		if stream == nil {
			return
		}
		stream.mu.Lock()
		delete(stream.subs, s.id)
		stream.mu.Unlock()
	})
}

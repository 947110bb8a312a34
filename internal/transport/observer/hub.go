package observer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"antmania.io/internal/eventproto"
	"antmania.io/internal/sim/engine"
)

// Hub fans simulation events out to observer sessions. It implements the
// engine's destruction and tick loggers, and never blocks the caller: a
// session whose buffer is full loses its oldest pending message.
type Hub struct {
	mu       sync.Mutex
	sessions map[uint64]*session
	nextID   uint64
	hello    []byte
	runEnd   []byte
	closed   bool

	dropped atomic.Uint64
}

type session struct {
	out  chan []byte
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: map[uint64]*session{}}
}

// Begin sets the HELLO message every session receives first.
func (h *Hub) Begin(info engine.RunInfo) {
	b, _ := json.Marshal(eventproto.Hello(info))
	h.mu.Lock()
	h.hello = b
	h.runEnd = nil
	h.mu.Unlock()
	h.broadcast(b)
}

func (h *Hub) WriteDestruction(entry engine.DestructionEntry) error {
	b, err := json.Marshal(eventproto.Destroyed(entry))
	if err != nil {
		return err
	}
	h.broadcast(b)
	return nil
}

func (h *Hub) WriteTick(entry engine.TickLogEntry) error {
	b, err := json.Marshal(eventproto.Tick(entry))
	if err != nil {
		return err
	}
	h.broadcast(b)
	return nil
}

// Finish broadcasts RUN_END and keeps it for sessions that join afterwards.
func (h *Hub) Finish(runID string, res engine.Result) {
	b, _ := json.Marshal(eventproto.RunEnd(runID, res))
	h.mu.Lock()
	h.runEnd = b
	h.mu.Unlock()
	h.broadcast(b)
}

func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close ends every session; later subscriptions fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.sessions {
		close(s.done)
		delete(h.sessions, id)
	}
}

func (h *Hub) subscribe(buf int) (uint64, *session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	h.nextID++
	s := &session{out: make(chan []byte, buf), done: make(chan struct{})}
	if h.hello != nil {
		s.out <- h.hello
	}
	if h.runEnd != nil {
		h.sendLatest(s, h.runEnd)
	}
	h.sessions[h.nextID] = s
	return h.nextID, s, true
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		close(s.done)
		delete(h.sessions, id)
	}
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		h.sendLatest(s, b)
	}
}

func (h *Hub) sendLatest(s *session, b []byte) {
	select {
	case s.out <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-s.out:
		h.dropped.Add(1)
	default:
	}
	select {
	case s.out <- b:
	default:
		h.dropped.Add(1)
	}
}

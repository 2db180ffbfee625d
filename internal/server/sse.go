package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/board/internal/events"
)

const (
	// sseRingBufferSize is the number of recent events kept for
	// Last-Event-ID replay.
	sseRingBufferSize = 256

	sseKeepaliveInterval = 15 * time.Second

	sseClientBuffer = 64
)

// sseEvent is one frame of the stream.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// sseHub fans board events out to connected SSE clients and keeps a ring
// buffer of recent events for reconnection. It is an events.Publisher so it
// can sit next to NATS in a Fanout.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	nextID  atomic.Uint64

	ringMu  sync.RWMutex
	ring    [sseRingBufferSize]sseEvent
	ringPos int
	ringLen int
}

var _ events.Publisher = (*sseHub)(nil)

type sseClient struct {
	topics []string
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// Publish broadcasts event to matching clients. Envelopes are sent whole so
// SSE and NATS consumers see the same payload.
func (h *sseHub) Publish(_ context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sse event: %w", err)
	}
	h.broadcast(topic, payload)
	return nil
}

func (h *sseHub) Close() error { return nil }

func (h *sseHub) broadcast(topic string, payload []byte) {
	// ringMu is held across ID assignment so the buffer stays in ID order.
	h.ringMu.Lock()
	evt := &sseEvent{ID: h.nextID.Add(1), Topic: topic, Data: payload}
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % sseRingBufferSize
	if h.ringLen < sseRingBufferSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matchesTopic(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Slow client: drop.
		}
	}
}

func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// eventsSince returns buffered events with ID > lastID, oldest first.
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	var result []*sseEvent
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += sseRingBufferSize
	}
	for i := range h.ringLen {
		evt := h.ring[(start+i)%sseRingBufferSize]
		if evt.ID > lastID {
			result = append(result, &evt)
		}
	}
	return result
}

// matchesTopic reports whether topic passes the client's filters. No filters
// match everything.
func (c *sseClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic NATS-style: "*" matches one
// segment, a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")
	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// parseTopics splits a comma-separated ?topics= value.
func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /v1/events/stream.
func (s *BoardServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.sseHub.subscribe(parseTopics(r.URL.Query().Get("topics")))
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var replayed uint64
	if lastID, ok := s.sseHub.replayFrom(r.Header.Get("Last-Event-ID")); ok {
		// Events already queued for this client may repeat the replay and
		// are skipped by stream.
		for _, evt := range s.sseHub.eventsSince(lastID) {
			if client.matchesTopic(evt.Topic) {
				writeSSEEvent(w, evt)
				replayed = evt.ID
			}
		}
		flusher.Flush()
	}
	s.stream(w, r, flusher, client, replayed)
}

// replayFrom parses a Last-Event-ID header. An ID this hub never issued,
// such as one from before a server restart, means no replay.
func (h *sseHub) replayFrom(header string) (uint64, bool) {
	if header == "" {
		return 0, false
	}
	lastID, err := strconv.ParseUint(header, 10, 64)
	if err != nil || lastID > h.nextID.Load() {
		return 0, false
	}
	return lastID, true
}

// stream forwards client events until the request ends. Events with an ID
// at or below skipThrough have already been written.
func (s *BoardServer) stream(w http.ResponseWriter, r *http.Request, flusher http.Flusher, client *sseClient, skipThrough uint64) {
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			if evt.ID <= skipThrough {
				continue
			}
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", evt.Topic)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}

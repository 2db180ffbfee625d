package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/board/internal/events"
	"github.com/alfredjeanlab/board/internal/model"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe(nil)
	defer hub.unsubscribe(client)

	hub.broadcast(events.TopicSelectorsChanged, []byte(`{"selectors":{}}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != events.TopicSelectorsChanged || evt.ID != 1 {
			t.Fatalf("unexpected event %+v", evt)
		}
		if string(evt.Data) != `{"selectors":{}}` {
			t.Fatalf("data = %q", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_PublishEncodesEvent(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe([]string{"board.snapshot.*"})
	defer hub.unsubscribe(client)

	var pub events.Publisher = hub
	if err := pub.Publish(context.Background(), events.TopicViewRecomputed, events.ViewRecomputed{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Publish(context.Background(), events.TopicSnapshotLoaded, events.SnapshotLoaded{Tickets: 4}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Publish(context.Background(), "x", func() {}); err == nil {
		t.Error("expected marshal error")
	}

	select {
	case evt := <-client.ch:
		var got events.SnapshotLoaded
		if err := json.Unmarshal(evt.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Topic != events.TopicSnapshotLoaded || got.Tickets != 4 {
			t.Errorf("unexpected event %s %+v", evt.Topic, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()
	client := hub.subscribe(nil)
	hub.unsubscribe(client)
	hub.broadcast(events.TopicViewRecomputed, []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
	if hub.clientCount() != 0 {
		t.Errorf("clientCount = %d", hub.clientCount())
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	hub := newSSEHub()
	if evts := hub.eventsSince(0); len(evts) != 0 {
		t.Fatalf("empty hub returned %d events", len(evts))
	}
	for range 5 {
		hub.broadcast(events.TopicViewRecomputed, []byte(`{}`))
	}
	evts := hub.eventsSince(2)
	if len(evts) != 3 || evts[0].ID != 3 || evts[2].ID != 5 {
		t.Fatalf("eventsSince(2) returned %d events", len(evts))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := newSSEHub()
	for range sseRingBufferSize + 10 {
		hub.broadcast(events.TopicViewRecomputed, []byte(`{}`))
	}
	evts := hub.eventsSince(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	if evts[0].ID != 11 {
		t.Fatalf("expected oldest event ID=11, got %d", evts[0].ID)
	}
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"board.view.recomputed", "board.view.recomputed", true},
		{"board.view.recomputed", "board.selectors.changed", false},
		{"board.view.*", "board.view.recomputed", true},
		{"board.view.*", "board.snapshot.loaded", false},
		{"board.>", "board.snapshot.loaded", true},
		{"board.>", "board", false},
		{"board.>", "other.topic", false},
		{"*.*.*", "board.view.recomputed", true},
		{"*.*.*", "board.view", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			if got := matchTopicPattern(tc.pattern, tc.topic); got != tc.want {
				t.Fatalf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

func TestParseTopics(t *testing.T) {
	got := parseTopics(" board.view.*, ,board.snapshot.loaded")
	if len(got) != 2 || got[0] != "board.view.*" || got[1] != "board.snapshot.loaded" {
		t.Errorf("parseTopics = %q", got)
	}
	if parseTopics("") != nil {
		t.Error("empty query should yield no filters")
	}
}

// sseEventParsed is one event read off the wire.
type sseEventParsed struct {
	ID    string
	Event string
	Data  string
}

// sseReader parses SSE frames from resp until the body closes.
func sseReader(resp *http.Response) <-chan sseEventParsed {
	ch := make(chan sseEventParsed, 32)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		var current sseEventParsed
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "id:"):
				current.ID = strings.TrimPrefix(line, "id:")
			case strings.HasPrefix(line, "event:"):
				current.Event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				current.Data = strings.TrimPrefix(line, "data:")
			case line == "":
				if current.Event != "" || current.Data != "" {
					ch <- current
					current = sseEventParsed{}
				}
			}
		}
	}()
	return ch
}

// openStream connects to the stream endpoint and waits until the hub has
// registered the client.
func openStream(t *testing.T, s *BoardServer, url string, header http.Header) <-chan sseEventParsed {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	before := s.sseHub.clientCount()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
	})
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.sseHub.clientCount() <= before {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return sseReader(resp)
}

func waitForEvent(t *testing.T, ch <-chan sseEventParsed, topic string) sseEventParsed {
	t.Helper()
	timer := time.After(2 * time.Second)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed before %q", topic)
			}
			if evt.Event == topic {
				return evt
			}
		case <-timer:
			t.Fatalf("timed out waiting for %q", topic)
		}
	}
}

func TestEventStream_SelectorChange(t *testing.T) {
	s, h := loadedServer(t)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	ch := openStream(t, s, ts.URL+"/v1/events/stream?topics=board.selectors.*", nil)

	if err := s.board.SetGrouping(model.GroupByUser); err != nil {
		t.Fatalf("SetGrouping: %v", err)
	}
	evt := waitForEvent(t, ch, events.TopicSelectorsChanged)

	var env events.Envelope
	if err := json.Unmarshal([]byte(evt.Data), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var data events.SelectorsChanged
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Selectors.Grouping != model.GroupByUser || env.Topic != events.TopicSelectorsChanged {
		t.Errorf("unexpected envelope %+v / %+v", env, data)
	}
}

func TestEventStream_LastEventIDReplay(t *testing.T) {
	s, h := loadedServer(t)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	// Refresh in loadedServer already produced events 1 and 2.
	if err := s.board.SetOrdering(model.OrderByTitle); err != nil {
		t.Fatalf("SetOrdering: %v", err)
	}

	ch := openStream(t, s, ts.URL+"/v1/events/stream", http.Header{"Last-Event-Id": {"2"}})

	first := waitForEvent(t, ch, events.TopicViewRecomputed)
	if first.ID != "3" {
		t.Errorf("first replayed id = %q, want 3", first.ID)
	}
	second := waitForEvent(t, ch, events.TopicSelectorsChanged)
	if second.ID != "4" {
		t.Errorf("second replayed id = %q, want 4", second.ID)
	}
}

func TestEventStream_StaleLastEventID(t *testing.T) {
	s, h := loadedServer(t)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	// An ID from before a restart is above anything this hub has issued.
	ch := openStream(t, s, ts.URL+"/v1/events/stream?topics=board.selectors.*", http.Header{"Last-Event-Id": {"100"}})

	if err := s.board.SetGrouping(model.GroupByUser); err != nil {
		t.Fatalf("SetGrouping: %v", err)
	}
	evt := waitForEvent(t, ch, events.TopicSelectorsChanged)
	if id, _ := strconv.ParseUint(evt.ID, 10, 64); id >= 100 {
		t.Errorf("event id = %s, want a fresh id below the stale one", evt.ID)
	}
}

func TestSSEHub_ReplayFrom(t *testing.T) {
	hub := newSSEHub()
	for range 3 {
		hub.broadcast("board.view.recomputed", []byte(`{}`))
	}
	for _, tc := range []struct {
		header string
		want   uint64
		ok     bool
	}{
		{header: "", ok: false},
		{header: "junk", ok: false},
		{header: "0", want: 0, ok: true},
		{header: "3", want: 3, ok: true},
		{header: "4", ok: false},
	} {
		got, ok := hub.replayFrom(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Errorf("replayFrom(%q) = %d, %v; want %d, %v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/board/internal/idgen"
	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/view"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return nil
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicViewRecomputed, ViewRecomputed{}); err != nil {
		t.Fatalf("Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close returned unexpected error: %v", err)
	}
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TopicSnapshotLoaded, SnapshotLoaded{Source: "file", Tickets: 3, Users: 1})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if !strings.HasPrefix(env.ID, idgen.EventPrefix) {
		t.Errorf("envelope id %q lacks event prefix", env.ID)
	}
	if env.Topic != TopicSnapshotLoaded || env.Time.IsZero() {
		t.Errorf("unexpected envelope %+v", env)
	}
	var got SnapshotLoaded
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if got.Tickets != 3 || got.Source != "file" {
		t.Errorf("data = %+v", got)
	}

	if _, err := NewEnvelope("x", func() {}); err == nil {
		t.Error("expected marshal error for a func payload")
	}
}

func TestFanout(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("down")}
	c := &recordingPublisher{}
	f := Fanout{a, b, c}

	err := f.Publish(context.Background(), TopicSelectorsChanged, SelectorsChanged{})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.topics) != 1 || len(c.topics) != 1 {
		t.Error("a failing publisher must not stop the others")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed || !c.closed {
		t.Error("Close should reach every publisher")
	}
}

func TestViewPublisher(t *testing.T) {
	rec := &recordingPublisher{}
	b := view.NewBoard(model.DefaultSelectors())
	b.Subscribe(NewViewPublisher(rec, nil))

	snap := &model.Snapshot{
		Tickets: []*model.Ticket{
			{ID: "T1", Status: model.StatusTodo, Priority: model.PriorityHigh},
			{ID: "T2", Status: model.StatusDone, Priority: model.PriorityLow},
			{ID: "T3", Status: model.StatusTodo, Priority: model.PriorityLow},
		},
		Users: []*model.User{},
	}
	if err := b.SetSnapshot(snap); err != nil {
		t.Fatalf("SetSnapshot: %v", err)
	}
	if err := b.SetOrdering(model.OrderByTitle); err != nil {
		t.Fatalf("SetOrdering: %v", err)
	}

	want := []string{TopicViewRecomputed, TopicViewRecomputed, TopicSelectorsChanged}
	if strings.Join(rec.topics, ",") != strings.Join(want, ",") {
		t.Fatalf("topics = %v, want %v", rec.topics, want)
	}

	env, ok := rec.events[0].(*Envelope)
	if !ok {
		t.Fatalf("published %T, want *Envelope", rec.events[0])
	}
	var ev ViewRecomputed
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Trigger != "snapshot" || ev.Tickets != 3 || len(ev.Groups) != 2 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Groups[0] != (GroupSummary{Label: "Todo", Count: 2}) {
		t.Errorf("first group = %+v", ev.Groups[0])
	}
}

func TestRecomputed_Error(t *testing.T) {
	ev := Recomputed(view.Change{
		Trigger:   view.TriggerGrouping,
		Selectors: model.DefaultSelectors(),
		Err:       model.ErrInvalidPriority,
	})
	if ev.Error == "" || ev.Tickets != 0 || ev.Groups == nil {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestViewPublisher_LogsFailures(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("unreachable")}
	p := NewViewPublisher(rec, nil)
	p.OnViewChanged(view.Change{Trigger: view.TriggerOrdering, Selectors: model.DefaultSelectors()})
	if len(rec.topics) != 2 {
		t.Errorf("expected both events to be attempted, got %v", rec.topics)
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 2)
	sub, err := nc.ChanSubscribe("board.>", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	if err := pub.Publish(context.Background(), TopicSnapshotLoaded, SnapshotLoaded{Source: "http", Tickets: 7}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pre, _ := NewEnvelope(TopicSelectorsChanged, SelectorsChanged{Selectors: model.DefaultSelectors()})
	if err := pub.Publish(context.Background(), TopicSelectorsChanged, pre); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	for i, wantTopic := range []string{TopicSnapshotLoaded, TopicSelectorsChanged} {
		select {
		case msg := <-ch:
			if msg.Subject != wantTopic {
				t.Errorf("message %d subject = %q, want %q", i, msg.Subject, wantTopic)
			}
			var env Envelope
			if err := json.Unmarshal(msg.Data, &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.Topic != wantTopic || env.ID == "" {
				t.Errorf("envelope = %+v", env)
			}
			if i == 1 && env.ID != pre.ID {
				t.Errorf("pre-built envelope id %q was replaced by %q", pre.ID, env.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := pub.Publish(context.Background(), TopicViewRecomputed, ViewRecomputed{}); err == nil {
		t.Error("expected error publishing after close")
	}
}

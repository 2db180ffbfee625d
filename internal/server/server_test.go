package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/alfredjeanlab/board/internal/events"
	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store/memory"
	"github.com/alfredjeanlab/board/internal/view"
)

// fakeSource returns a fixed snapshot or error and counts calls.
type fakeSource struct {
	mu    sync.Mutex
	snap  *model.Snapshot
	err   error
	calls int
}

func (f *fakeSource) Fetch(context.Context) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap, f.err
}

func (f *fakeSource) set(snap *model.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testSnapshot has two Todo tickets and one Done ticket.
func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Tickets: []*model.Ticket{
			{ID: "T1", Title: "Fix login", Status: model.StatusTodo, Priority: model.PriorityHigh, UserID: model.StringPtr("U1"), Tag: []string{"auth"}},
			{ID: "T2", Title: "Archive logs", Status: model.StatusDone, Priority: model.PriorityLow, Tag: []string{}},
			{ID: "T3", Title: "Billing outage", Status: model.StatusTodo, Priority: model.PriorityUrgent, Tag: []string{}},
		},
		Users: []*model.User{{ID: "U1", Name: "Ann Lee"}},
	}
}

func newTestServer(t *testing.T, src *fakeSource) (*BoardServer, *memory.MemoryStore) {
	t.Helper()
	st := memory.New()
	b := view.NewBoard(model.DefaultSelectors())
	return NewBoardServer(b, st, src, nil, nil), st
}

func TestRefreshSnapshot_AppliesAndPersists(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	s, st := newTestServer(t, src)

	snap, err := s.RefreshSnapshot(context.Background())
	if err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}
	if len(snap.Tickets) != 3 {
		t.Fatalf("refreshed %d tickets, want 3", len(snap.Tickets))
	}

	todo, ok := s.board.View().Group(model.StatusTodo)
	if !ok || len(todo) != 2 || todo[0].ID != "T3" {
		t.Errorf("Todo group = %v, %v", todo, ok)
	}

	stored, err := st.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(stored.Tickets) != 3 || len(stored.Users) != 1 {
		t.Errorf("stored snapshot = %d tickets, %d users", len(stored.Tickets), len(stored.Users))
	}
}

func TestRefreshSnapshot_FailureKeepsLastSnapshot(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	s, _ := newTestServer(t, src)
	if _, err := s.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	src.set(nil, errors.New("connection refused"))
	_, err := s.RefreshSnapshot(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if got := s.board.View().TicketCount(); got != 3 {
		t.Errorf("view lost its tickets after a failed refresh: %d", got)
	}
}

func TestRefreshSnapshot_IncompleteSnapshot(t *testing.T) {
	src := &fakeSource{snap: &model.Snapshot{Tickets: []*model.Ticket{}}}
	s, _ := newTestServer(t, src)

	if _, err := s.RefreshSnapshot(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if s.board.Snapshot() != nil {
		t.Error("incomplete snapshot should not be applied")
	}
}

func TestRefreshSnapshot_DropsInvalidTickets(t *testing.T) {
	snap := testSnapshot()
	snap.Tickets = append(snap.Tickets, &model.Ticket{ID: "T9", Status: model.StatusTodo, Priority: 9})
	s, _ := newTestServer(t, &fakeSource{snap: snap})

	if _, err := s.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}
	if got := s.board.View().TicketCount(); got != 3 {
		t.Errorf("TicketCount = %d, want 3", got)
	}
}

func TestWarm(t *testing.T) {
	s, st := newTestServer(t, &fakeSource{})

	if err := s.Warm(context.Background()); err != nil {
		t.Fatalf("Warm on empty store: %v", err)
	}
	if s.board.Snapshot() != nil {
		t.Error("empty store should leave the board unloaded")
	}

	if err := st.SaveSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := s.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if got := s.board.View().Labels(); len(got) != 2 || got[0] != model.StatusTodo {
		t.Errorf("labels after warm = %v", got)
	}
}

func TestWarm_NoStore(t *testing.T) {
	s := NewBoardServer(view.NewBoard(model.DefaultSelectors()), nil, &fakeSource{}, nil, nil)
	if err := s.Warm(context.Background()); err != nil {
		t.Fatalf("Warm without store: %v", err)
	}
}

func TestBoardServer_PublishesBoardEvents(t *testing.T) {
	s, _ := newTestServer(t, &fakeSource{snap: testSnapshot()})
	client := s.sseHub.subscribe([]string{"board.>"})
	defer s.sseHub.unsubscribe(client)

	if _, err := s.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}

	want := []string{events.TopicViewRecomputed, events.TopicSnapshotLoaded}
	for i, topic := range want {
		select {
		case evt := <-client.ch:
			if evt.Topic != topic {
				t.Errorf("event %d topic = %q, want %q", i, evt.Topic, topic)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", topic)
		}
	}
}

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestWatchInvalidations(t *testing.T) {
	url := startTestNATS(t)
	src := &fakeSource{snap: testSnapshot()}
	s, _ := newTestServer(t, src)

	sub, err := events.NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.WatchInvalidations(ctx, sub); err != nil {
		t.Fatalf("WatchInvalidations: %v", err)
	}

	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()
	if err := pub.Publish(ctx, events.TopicSnapshotInvalidate, events.SnapshotInvalidate{Reason: "test"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for s.board.View().TicketCount() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("board not refreshed after invalidation (source calls: %d)", src.callCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCurrentView_ConsistentUnderSelectorChanges(t *testing.T) {
	s, _ := newTestServer(t, &fakeSource{snap: testSnapshot()})
	if _, err := s.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		modes := []model.GroupingMode{model.GroupByUser, model.GroupByStatus}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			_ = s.board.SetGrouping(modes[i%2])
		}
	}()

	mismatched := 0
	for i := 0; i < 20000; i++ {
		sel, v, err := s.currentView("", "")
		if err != nil {
			t.Fatalf("currentView: %v", err)
		}
		// Status grouping puts Todo first, user grouping puts Ann Lee first.
		if (sel.Grouping == model.GroupByStatus) != (v.Labels()[0] == model.StatusTodo) {
			mismatched++
		}
	}
	close(done)
	wg.Wait()

	if mismatched > 0 {
		t.Fatalf("%d responses paired selectors with a view derived under other selectors", mismatched)
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/board/internal/events"
	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
	"github.com/alfredjeanlab/board/internal/source"
	"github.com/alfredjeanlab/board/internal/store"
	"github.com/alfredjeanlab/board/internal/view"
)

// refreshTimeout bounds a refresh triggered by an invalidation message.
const refreshTimeout = 30 * time.Second

// ErrSourceUnavailable is returned by RefreshSnapshot when the data source
// cannot be read. The board keeps serving its last snapshot.
var ErrSourceUnavailable = errors.New("data source unavailable")

// BoardServer serves a board over HTTP, SSE and gRPC.
type BoardServer struct {
	board     *view.Board
	store     store.Store
	source    source.Source
	publisher events.Publisher
	sseHub    *sseHub
	logger    *slog.Logger

	// SourceName labels snapshot.loaded events ("http", "file", ...).
	SourceName string

	refreshMu sync.Mutex
}

// NewBoardServer returns a server for b. Snapshots are read from src and
// persisted to st; st may be nil. Board changes are published to pub and to
// connected SSE clients.
func NewBoardServer(b *view.Board, st store.Store, src source.Source, pub events.Publisher, logger *slog.Logger) *BoardServer {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	s := &BoardServer{
		board:      b,
		store:      st,
		source:     src,
		sseHub:     newSSEHub(),
		logger:     logger,
		SourceName: "source",
	}
	s.publisher = events.Fanout{pub, s.sseHub}
	b.Subscribe(events.NewViewPublisher(s.publisher, logger))
	return s
}

// Board returns the served board.
func (s *BoardServer) Board() *view.Board {
	return s.board
}

// Warm loads the last persisted snapshot into the board so clients see data
// before the first fetch completes. An empty or missing store is a no-op.
func (s *BoardServer) Warm(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load stored snapshot: %w", err)
	}
	if len(snap.Tickets) == 0 && len(snap.Users) == 0 {
		return nil
	}
	s.logger.Info("board warmed from store", "tickets", len(snap.Tickets), "users", len(snap.Users))
	return s.board.SetSnapshot(snap)
}

// RefreshSnapshot fetches a fresh snapshot from the source, persists it and
// hands it to the board. When the fetch fails the board keeps its current
// snapshot and the error wraps ErrSourceUnavailable. A derivation error from
// the new snapshot is returned after the snapshot has been applied.
func (s *BoardServer) RefreshSnapshot(ctx context.Context) (*model.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Warn("refresh failed, keeping last snapshot", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	snap = source.Sanitize(snap, s.logger)
	if !snap.Loaded() {
		s.logger.Warn("refresh returned an incomplete snapshot, keeping last snapshot")
		return nil, fmt.Errorf("%w: incomplete snapshot", ErrSourceUnavailable)
	}

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			s.logger.Warn("failed to persist snapshot", "error", err)
		}
	}

	derr := s.board.SetSnapshot(snap)
	s.publish(ctx, events.TopicSnapshotLoaded, events.SnapshotLoaded{
		Source:  s.SourceName,
		Tickets: len(snap.Tickets),
		Users:   len(snap.Users),
	})
	s.logger.Info("snapshot refreshed", "tickets", len(snap.Tickets), "users", len(snap.Users))
	return snap, derr
}

// WatchInvalidations refreshes the board whenever a message arrives on
// events.TopicSnapshotInvalidate. It returns once subscribed; the watch ends
// when ctx is cancelled.
func (s *BoardServer) WatchInvalidations(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.TopicSnapshotInvalidate)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", events.TopicSnapshotInvalidate, err)
	}
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				inv := events.DecodeInvalidation(payload)
				s.logger.Info("snapshot invalidated, refreshing", "reason", inv.Reason)
				rctx, rcancel := context.WithTimeout(ctx, refreshTimeout)
				if _, err := s.RefreshSnapshot(rctx); err != nil {
					s.logger.Warn("invalidation refresh failed", "error", err)
				}
				rcancel()
			}
		}
	}()
	return nil
}

// publish wraps event in an envelope and sends it to NATS and SSE clients.
// Failures are logged and dropped.
func (s *BoardServer) publish(ctx context.Context, topic string, event any) {
	env, err := events.NewEnvelope(topic, event)
	if err == nil {
		err = s.publisher.Publish(ctx, topic, env)
	}
	if err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// resolveSelectors fills unset query modes from cur.
func resolveSelectors(cur model.Selectors, grouping, ordering string) (model.Selectors, error) {
	sel := cur
	if grouping != "" {
		g, ok := model.ParseGroupingMode(grouping)
		if !ok {
			return sel, inputError(fmt.Sprintf("unknown grouping %q", grouping))
		}
		sel.Grouping = g
	}
	if ordering != "" {
		o, ok := model.ParseOrderingMode(ordering)
		if !ok {
			return sel, inputError(fmt.Sprintf("unknown ordering %q", ordering))
		}
		sel.Ordering = o
	}
	return sel, nil
}

// currentView returns the view for the requested modes. Empty modes fall back
// to the board's selectors; when both match the board the stored view is
// returned without recomputation. Everything comes from one board state, so
// selectors, view and error always agree.
func (s *BoardServer) currentView(grouping, ordering string) (model.Selectors, *view.GroupedView, error) {
	sel, v, _, err := s.stateView(grouping, ordering)
	return sel, v, err
}

func (s *BoardServer) stateView(grouping, ordering string) (model.Selectors, *view.GroupedView, *view.State, error) {
	st := s.board.State()
	sel, err := resolveSelectors(st.Selectors, grouping, ordering)
	if err != nil {
		return sel, nil, st, err
	}
	if sel == st.Selectors {
		if st.Err != nil {
			return sel, nil, st, st.Err
		}
		return sel, st.View, st, nil
	}
	v, err := s.board.DeriveFrom(st, sel.Grouping, sel.Ordering)
	return sel, v, st, err
}

// boardColumns projects the requested view into display columns.
func (s *BoardServer) boardColumns(grouping, ordering string) (rpc.BoardResponse, error) {
	sel, v, st, err := s.stateView(grouping, ordering)
	if err != nil {
		return rpc.BoardResponse{}, err
	}
	return rpc.BoardResponse{
		Selectors: sel,
		Columns:   view.Columns(v, userIndex(st), sel.Grouping),
	}, nil
}

// userIndex indexes the users of st's snapshot.
func userIndex(st *view.State) view.UserIndex {
	var users []*model.User
	if st.Snapshot != nil {
		users = st.Snapshot.Users
	}
	return view.NewUserIndex(users)
}

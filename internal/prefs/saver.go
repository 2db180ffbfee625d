package prefs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/view"
)

// saveTimeout bounds a single background write.
const saveTimeout = 5 * time.Second

// Saver persists selectors in the background. Enqueue never blocks; if
// several values arrive before the writer runs, only the latest is written.
// The stored value is eventually consistent with the last Enqueue.
type Saver struct {
	kv     KV
	logger *slog.Logger

	mu      sync.Mutex
	pending *model.Selectors
	wake    chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Compile-time check that Saver can be subscribed to a board.
var _ view.Listener = (*Saver)(nil)

// NewSaver returns a saver writing to kv. Call Start before Enqueue.
func NewSaver(kv KV, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		kv:     kv,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Start launches the background writer.
func (s *Saver) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop stops the writer after flushing any pending value.
func (s *Saver) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.flush(context.Background())
}

// Enqueue schedules sel to be written.
func (s *Saver) Enqueue(sel model.Selectors) {
	s.mu.Lock()
	s.pending = &sel
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// OnViewChanged persists the selectors after a grouping or ordering change.
// Snapshot reloads leave the selectors untouched and are not written.
func (s *Saver) OnViewChanged(c view.Change) {
	if c.Trigger == view.TriggerSnapshot {
		return
	}
	s.Enqueue(c.Selectors)
}

func (s *Saver) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.flush(ctx)
		}
	}
}

func (s *Saver) flush(parent context.Context) {
	s.mu.Lock()
	sel := s.pending
	s.pending = nil
	s.mu.Unlock()
	if sel == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), saveTimeout)
	defer cancel()
	if err := Save(ctx, s.kv, *sel); err != nil {
		s.logger.Warn("failed to persist selectors", "grouping", sel.Grouping, "ordering", sel.Ordering, "error", err)
		return
	}
	s.logger.Debug("selectors persisted", "grouping", sel.Grouping, "ordering", sel.Ordering)
}

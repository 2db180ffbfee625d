// Package sync mirrors the board to external destinations as JSONL exports.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/board/internal/store"
	"github.com/alfredjeanlab/board/internal/view"
)

// Destination receives complete board exports.
type Destination interface {
	Write(ctx context.Context, data []byte) error
	// Location identifies the destination in logs and status output.
	Location() string
}

// DestinationStatus is the outcome of the most recent write to one
// destination.
type DestinationStatus struct {
	Location  string
	LastWrite time.Time
	LastErr   error
}

// Scheduler exports the board whenever it has changed since the last
// successful export, checking once per interval. Register it with
// Board.Subscribe so recomputations mark it dirty.
type Scheduler struct {
	board        BoardState
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	dirty atomic.Bool

	mu     sync.Mutex // serialises exports and guards status
	status []DestinationStatus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ view.Listener = (*Scheduler)(nil)

// NewScheduler creates a scheduler for b. Configs from s are included in
// every export when s is non-nil. The first tick always exports.
func NewScheduler(b BoardState, s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	status := make([]DestinationStatus, len(destinations))
	for i, d := range destinations {
		status[i].Location = d.Location()
	}
	sched := &Scheduler{
		board:        b,
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		status:       status,
	}
	sched.dirty.Store(true)
	return sched
}

// OnViewChanged marks the board as needing export. It never blocks.
func (s *Scheduler) OnViewChanged(view.Change) {
	s.dirty.Store(true)
}

// Start exports immediately, then on every tick at which the board is dirty.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Stop cancels the loop and waits for an in-flight export.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncNow exports regardless of the dirty flag and reports whether every
// destination accepted the payload.
func (s *Scheduler) SyncNow(ctx context.Context) bool {
	s.dirty.Store(false)
	ok := s.export(ctx)
	if !ok {
		s.dirty.Store(true)
	}
	return ok
}

// Status returns the last outcome per destination, in configuration order.
func (s *Scheduler) Status() []DestinationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.status)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.dirty.Swap(false) && !s.export(ctx) {
			// Retry failed destinations on the next tick.
			s.dirty.Store(true)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) export(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.board, s.store, &buf); err != nil {
		s.logger.Error("board export failed", "error", err)
		return false
	}
	payload := buf.Bytes()

	failed := 0
	for i, dest := range s.destinations {
		err := dest.Write(ctx, payload)
		s.status[i].LastErr = err
		if err != nil {
			failed++
			s.logger.Error("export write failed", "location", dest.Location(), "error", err)
			continue
		}
		s.status[i].LastWrite = time.Now()
	}

	s.logger.Info("board exported", "bytes", len(payload), "destinations", len(s.destinations), "failed", failed)
	return failed == 0
}

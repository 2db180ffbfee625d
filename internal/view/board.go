package view

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/alfredjeanlab/board/internal/model"
)

// Trigger names what caused a recomputation.
type Trigger string

const (
	TriggerSnapshot Trigger = "snapshot"
	TriggerGrouping Trigger = "grouping"
	TriggerOrdering Trigger = "ordering"
)

// Change describes one recomputation. Err is set when the derivation failed;
// View is then the empty view.
type Change struct {
	Trigger   Trigger
	Selectors model.Selectors
	View      *GroupedView
	Err       error
}

// Listener is notified after every recomputation.
type Listener interface {
	OnViewChanged(Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change)

// OnViewChanged calls f(c).
func (f ListenerFunc) OnViewChanged(c Change) { f(c) }

// Board holds the latest snapshot and selectors and keeps a derived view in
// step with them. Every mutation re-derives the view from scratch and swaps
// it in whole; readers calling View never observe a partial update.
//
// Listeners run synchronously, in registration order, while the board's
// write lock is held. They must not call Board mutators.
type Board struct {
	mu        sync.Mutex // serialises mutators
	snapshot  *model.Snapshot
	selectors model.Selectors
	locale    language.Tag
	listeners []Listener

	state atomic.Pointer[State]
}

// State is one consistent reading of the board: the view together with the
// selectors and snapshot it was derived from and the derivation error.
// States are never modified after publication.
type State struct {
	Selectors model.Selectors
	Snapshot  *model.Snapshot
	View      *GroupedView
	Err       error
}

// Option configures a Board.
type Option func(*Board)

// WithLocale sets the collation locale used for title ordering.
func WithLocale(tag language.Tag) Option {
	return func(b *Board) { b.locale = tag }
}

// NewBoard returns a board with the given selectors (unrecognised values are
// replaced by defaults) and no snapshot. Its view starts empty.
func NewBoard(sel model.Selectors, opts ...Option) *Board {
	b := &Board{
		selectors: sel.Normalize(),
		locale:    DefaultLocale,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.state.Store(&State{Selectors: b.selectors, View: newGroupedView()})
	return b
}

// Subscribe registers l for future recomputations.
func (b *Board) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// State returns the current state. Callers needing more than one field
// should read them all from a single State.
func (b *Board) State() *State {
	return b.state.Load()
}

// View returns the current view. It never returns nil.
func (b *Board) View() *GroupedView {
	return b.State().View
}

// Selectors returns the current selectors.
func (b *Board) Selectors() model.Selectors {
	return b.State().Selectors
}

// Snapshot returns the snapshot the current view was derived from, or nil
// before the first load.
func (b *Board) Snapshot() *model.Snapshot {
	return b.State().Snapshot
}

// Err returns the error from the most recent derivation, if any.
func (b *Board) Err() error {
	return b.State().Err
}

// Locale returns the collation locale.
func (b *Board) Locale() language.Tag {
	return b.locale
}

// SetSnapshot replaces the snapshot and recomputes. A nil snapshot yields an
// empty view.
func (b *Board) SetSnapshot(s *model.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = s
	return b.recompute(TriggerSnapshot)
}

// SetGrouping changes the grouping mode and recomputes.
func (b *Board) SetGrouping(g model.GroupingMode) error {
	if !g.IsValid() {
		return fmt.Errorf("grouping %q: %w", g, model.ErrInvalidMode)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectors.Grouping = g
	return b.recompute(TriggerGrouping)
}

// SetOrdering changes the ordering mode and recomputes.
func (b *Board) SetOrdering(o model.OrderingMode) error {
	if !o.IsValid() {
		return fmt.Errorf("ordering %q: %w", o, model.ErrInvalidMode)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectors.Ordering = o
	return b.recompute(TriggerOrdering)
}

// SetSelectors changes both modes with a single recomputation. Both must be
// valid; nothing changes otherwise.
func (b *Board) SetSelectors(sel model.Selectors) error {
	if !sel.Grouping.IsValid() {
		return fmt.Errorf("grouping %q: %w", sel.Grouping, model.ErrInvalidMode)
	}
	if !sel.Ordering.IsValid() {
		return fmt.Errorf("ordering %q: %w", sel.Ordering, model.ErrInvalidMode)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	trigger := TriggerOrdering
	if sel.Grouping != b.selectors.Grouping {
		trigger = TriggerGrouping
	}
	b.selectors = sel
	return b.recompute(trigger)
}

// Derive builds a view of the current snapshot under the given modes without
// changing the board.
func (b *Board) Derive(g model.GroupingMode, o model.OrderingMode) (*GroupedView, error) {
	return b.DeriveFrom(b.State(), g, o)
}

// DeriveFrom builds a view of st's snapshot under the given modes using the
// board's locale.
func (b *Board) DeriveFrom(st *State, g model.GroupingMode, o model.OrderingMode) (*GroupedView, error) {
	return buildSnapshot(st.Snapshot, g, o, b.locale)
}

// recompute must be called with b.mu held.
func (b *Board) recompute(trigger Trigger) error {
	v, err := buildSnapshot(b.snapshot, b.selectors.Grouping, b.selectors.Ordering, b.locale)
	if err != nil {
		v = newGroupedView()
	}
	b.state.Store(&State{Selectors: b.selectors, Snapshot: b.snapshot, View: v, Err: err})

	c := Change{Trigger: trigger, Selectors: b.selectors, View: v, Err: err}
	for _, l := range b.listeners {
		l.OnViewChanged(c)
	}
	return err
}

func buildSnapshot(s *model.Snapshot, g model.GroupingMode, o model.OrderingMode, tag language.Tag) (*GroupedView, error) {
	if s == nil {
		return BuildWithLocale(nil, nil, g, o, tag)
	}
	return BuildWithLocale(s.Tickets, s.Users, g, o, tag)
}

// Package memory implements store.Store in process memory. It backs the
// server when no database is configured and keeps nothing across restarts.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
)

// MemoryStore implements store.Store with maps guarded by a mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *model.Snapshot
	configs  map[string]*model.Config
	now      func() time.Time
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		configs: make(map[string]*model.Config),
		now:     time.Now,
	}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot: nil snapshot")
	}
	cp := copySnapshot(snap)
	s.mu.Lock()
	s.snapshot = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadSnapshot(_ context.Context) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return &model.Snapshot{Tickets: []*model.Ticket{}, Users: []*model.User{}}, nil
	}
	return copySnapshot(s.snapshot), nil
}

func (s *MemoryStore) SetConfig(_ context.Context, config *model.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if existing, ok := s.configs[config.Key]; ok {
		config.CreatedAt = existing.CreatedAt
	} else {
		config.CreatedAt = now
	}
	config.UpdatedAt = now
	s.configs[config.Key] = cloneConfig(config)
	return nil
}

// cloneConfig copies c including its Value bytes.
func cloneConfig(c *model.Config) *model.Config {
	cp := *c
	cp.Value = slices.Clone(c.Value)
	return &cp
}

func (s *MemoryStore) GetConfig(_ context.Context, key string) (*model.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneConfig(c), nil
}

func (s *MemoryStore) ListConfigs(_ context.Context, namespace string) ([]*model.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Config
	for key, c := range s.configs {
		if !model.InNamespace(key, namespace) {
			continue
		}
		out = append(out, cloneConfig(c))
	}
	slices.SortFunc(out, func(a, b *model.Config) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (s *MemoryStore) DeleteConfig(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.configs, key)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// copySnapshot deep-copies snap, dropping nil entries.
func copySnapshot(snap *model.Snapshot) *model.Snapshot {
	out := &model.Snapshot{
		Tickets: make([]*model.Ticket, 0, len(snap.Tickets)),
		Users:   make([]*model.User, 0, len(snap.Users)),
	}
	for _, u := range snap.Users {
		if u == nil {
			continue
		}
		cp := *u
		out.Users = append(out.Users, &cp)
	}
	for _, t := range snap.Tickets {
		if t == nil {
			continue
		}
		cp := *t
		if t.UserID != nil {
			cp.UserID = model.StringPtr(*t.UserID)
		}
		cp.Tag = slices.Clone(t.Tag)
		out.Tickets = append(out.Tickets, &cp)
	}
	return out
}

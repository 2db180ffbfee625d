package source

import (
	"context"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
)

// StoreSource reads the last snapshot persisted in a store. The server uses
// it to warm the board before the first remote fetch completes.
type StoreSource struct {
	store store.Store
}

func NewStoreSource(s store.Store) *StoreSource {
	return &StoreSource{store: s}
}

func (s *StoreSource) Fetch(ctx context.Context) (*model.Snapshot, error) {
	return s.store.LoadSnapshot(ctx)
}

package store

import (
	"context"
	"database/sql"

	"github.com/alfredjeanlab/board/internal/model"
)

// ErrNotFound is returned when a config key does not exist.
var ErrNotFound = sql.ErrNoRows

// Store defines the persistence interface for board snapshots and
// key-value configuration.
type Store interface {
	// SaveSnapshot replaces the stored tickets and users with snap, keeping
	// their input order.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	// LoadSnapshot returns the stored snapshot. An empty store returns a
	// loaded snapshot with no tickets and no users.
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)

	// Configs
	SetConfig(ctx context.Context, config *model.Config) error
	GetConfig(ctx context.Context, key string) (*model.Config, error)
	// ListConfigs returns configs whose key starts with "{namespace}:", or
	// every config when namespace is empty.
	ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error)
	DeleteConfig(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

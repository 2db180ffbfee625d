// Package source retrieves ticket and user snapshots from the outside world.
//
// A Source performs one retrieval per Fetch call. Load wraps a fetch with the
// board's failure policy: an unavailable source is logged and yields nil,
// which the board renders as an empty view.
package source

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/board/internal/model"
)

// Source yields one snapshot per call.
type Source interface {
	Fetch(ctx context.Context) (*model.Snapshot, error)
}

// Load fetches a snapshot from src and sanitizes it. Any failure is logged
// and reported as a nil snapshot.
func Load(ctx context.Context, src Source, logger *slog.Logger) *model.Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	snap, err := src.Fetch(ctx)
	if err != nil {
		logger.Warn("data source unavailable", "error", err)
		return nil
	}
	snap = Sanitize(snap, logger)
	if snap != nil {
		logger.Info("snapshot loaded", "tickets", len(snap.Tickets), "users", len(snap.Users))
	}
	return snap
}

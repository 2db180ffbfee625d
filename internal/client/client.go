// Package client provides a transport-agnostic interface for the board
// service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
	"github.com/alfredjeanlab/board/internal/view"
)

// BoardClient is the interface CLI commands use to talk to a board server.
type BoardClient interface {
	// GetView returns the grouped view. Empty modes use the server's stored
	// selectors; a non-empty mode derives an ad-hoc view without changing
	// them.
	GetView(ctx context.Context, grouping, ordering string) (*View, error)
	// GetBoard returns the same view projected into display columns.
	GetBoard(ctx context.Context, grouping, ordering string) (*rpc.BoardResponse, error)

	GetSelectors(ctx context.Context) (model.Selectors, error)
	// SetSelectors changes the stored selectors. Nil fields are left alone.
	SetSelectors(ctx context.Context, grouping, ordering *string) (model.Selectors, error)

	// GetSnapshot returns the tickets and users the server's view is derived
	// from. Both are nil before the server's first load.
	GetSnapshot(ctx context.Context) (*model.Snapshot, error)

	// Refresh asks the server to refetch its data source.
	Refresh(ctx context.Context) (*rpc.RefreshResponse, error)

	Health(ctx context.Context) (string, error)

	Close() error
}

// View is a grouped view with the selectors it was derived under.
type View struct {
	Selectors model.Selectors
	View      *view.GroupedView
}

func updateOf(grouping, ordering *string) rpc.SelectorsUpdate {
	return rpc.SelectorsUpdate{Grouping: grouping, Ordering: ordering}
}

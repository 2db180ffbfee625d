// Package prefs persists the board's grouping and ordering selectors in a
// key-value store.
package prefs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/board/internal/model"
)

// Storage keys.
const (
	KeyGrouping = "grouping"
	KeyOrdering = "ordering"
)

// KV is a string key-value store. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Load reads the selectors from kv. A missing, unreadable or unrecognised
// value falls back to its default; Load never fails.
func Load(ctx context.Context, kv KV, logger *slog.Logger) model.Selectors {
	if logger == nil {
		logger = slog.Default()
	}
	sel := model.DefaultSelectors()

	if v, ok := get(ctx, kv, KeyGrouping, logger); ok {
		if g, valid := model.ParseGroupingMode(v); valid {
			sel.Grouping = g
		} else {
			logger.Warn("ignoring stored grouping", "value", v, "default", sel.Grouping)
		}
	}
	if v, ok := get(ctx, kv, KeyOrdering, logger); ok {
		if o, valid := model.ParseOrderingMode(v); valid {
			sel.Ordering = o
		} else {
			logger.Warn("ignoring stored ordering", "value", v, "default", sel.Ordering)
		}
	}
	return sel
}

func get(ctx context.Context, kv KV, key string, logger *slog.Logger) (string, bool) {
	v, ok, err := kv.Get(ctx, key)
	if err != nil {
		logger.Warn("failed to read preference", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// Save writes both selectors to kv.
func Save(ctx context.Context, kv KV, sel model.Selectors) error {
	if err := kv.Set(ctx, KeyGrouping, sel.Grouping.String()); err != nil {
		return fmt.Errorf("save %s: %w", KeyGrouping, err)
	}
	if err := kv.Set(ctx, KeyOrdering, sel.Ordering.String()); err != nil {
		return fmt.Errorf("save %s: %w", KeyOrdering, err)
	}
	return nil
}

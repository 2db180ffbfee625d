package server

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/prefs"
	"github.com/alfredjeanlab/board/internal/store"
)

// builtinConfigs are returned when the store holds no value for a key. They
// mirror model.DefaultSelectors.
var builtinConfigs = func() map[string]*model.Config {
	d := model.DefaultSelectors()
	m := map[string]*model.Config{}
	for key, value := range map[string]string{
		prefs.KeyGrouping: d.Grouping.String(),
		prefs.KeyOrdering: d.Ordering.String(),
	} {
		raw, _ := json.Marshal(value)
		full := model.ConfigKey(prefs.ConfigNamespace, key)
		m[full] = &model.Config{Key: full, Value: raw}
	}
	return m
}()

// getConfig looks key up in the store, falling back to the builtin default.
func (s *BoardServer) getConfig(ctx context.Context, key string) (*model.Config, error) {
	if s.store != nil {
		cfg, err := s.store.GetConfig(ctx, key)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if builtin, ok := builtinConfigs[key]; ok {
		return builtin, nil
	}
	return nil, store.ErrNotFound
}

// listConfigsWithBuiltins merges stored configs with builtin defaults for
// keys the store does not have. The result is sorted by key.
func (s *BoardServer) listConfigsWithBuiltins(ctx context.Context, namespace string) ([]*model.Config, error) {
	var configs []*model.Config
	if s.store != nil {
		var err error
		configs, err = s.store.ListConfigs(ctx, namespace)
		if err != nil {
			return nil, err
		}
	}
	have := make(map[string]bool, len(configs))
	for _, c := range configs {
		have[c.Key] = true
	}
	for key, builtin := range builtinConfigs {
		if have[key] {
			continue
		}
		if model.InNamespace(key, namespace) {
			configs = append(configs, builtin)
		}
	}
	slices.SortFunc(configs, func(a, b *model.Config) int { return strings.Compare(a.Key, b.Key) })
	return configs, nil
}

// deleteConfig removes key from the store. For preference keys the board
// selector falls back to its default.
func (s *BoardServer) deleteConfig(ctx context.Context, key string) error {
	if s.store == nil {
		return store.ErrNotFound
	}
	if err := s.store.DeleteConfig(ctx, key); err != nil {
		return err
	}

	d := model.DefaultSelectors()
	var err error
	switch key {
	case model.ConfigKey(prefs.ConfigNamespace, prefs.KeyGrouping):
		err = s.board.SetGrouping(d.Grouping)
	case model.ConfigKey(prefs.ConfigNamespace, prefs.KeyOrdering):
		err = s.board.SetOrdering(d.Ordering)
	}
	if err != nil {
		s.logger.Warn("view derivation failed after preference reset", "key", key, "error", err)
	}
	return nil
}

package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
)

// ConfigNamespace prefixes preference keys in the config table.
const ConfigNamespace = "pref"

// ConfigKV stores preferences as JSON string configs named "pref:{key}".
type ConfigKV struct {
	store store.Store
}

// NewConfigKV returns a KV over s.
func NewConfigKV(s store.Store) *ConfigKV {
	return &ConfigKV{store: s}
}

func configKey(key string) string {
	return model.ConfigKey(ConfigNamespace, key)
}

func (c *ConfigKV) Get(ctx context.Context, key string) (string, bool, error) {
	cfg, err := c.store.GetConfig(ctx, configKey(key))
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var v string
	if err := json.Unmarshal(cfg.Value, &v); err != nil {
		return "", false, fmt.Errorf("decode %s: %w", cfg.Key, err)
	}
	return v, true, nil
}

func (c *ConfigKV) Set(ctx context.Context, key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.SetConfig(ctx, &model.Config{Key: configKey(key), Value: raw})
}

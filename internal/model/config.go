package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Config is a namespaced key-value record. Keys read "{namespace}:{name}",
// e.g. "pref:grouping"; values are arbitrary JSON.
type Config struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ConfigKey joins a namespace and a name into a config key.
func ConfigKey(namespace, name string) string {
	return namespace + ":" + name
}

// InNamespace reports whether key belongs to namespace. Every key belongs to
// the empty namespace.
func InNamespace(key, namespace string) bool {
	return namespace == "" || strings.HasPrefix(key, namespace+":")
}

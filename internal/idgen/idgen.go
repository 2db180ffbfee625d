// Package idgen generates short, URL-safe identifiers for board events and
// export runs.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Identifier prefixes.
const (
	EventPrefix  = "ev-"
	ExportPrefix = "ex-"
)

// alphabet is the character set of the random part.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters after the prefix.
const Length = 12

// NewEventID returns an identifier for an event envelope.
func NewEventID() (string, error) {
	return WithPrefix(EventPrefix)
}

// NewExportID returns an identifier for one export run.
func NewExportID() (string, error) {
	return WithPrefix(ExportPrefix)
}

// WithPrefix returns prefix followed by Length random characters.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

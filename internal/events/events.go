package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alfredjeanlab/board/internal/idgen"
	"github.com/alfredjeanlab/board/internal/model"
)

// Event topic constants
const (
	TopicViewRecomputed   = "board.view.recomputed"
	TopicSelectorsChanged = "board.selectors.changed"
	TopicSnapshotLoaded   = "board.snapshot.loaded"

	// TopicSnapshotInvalidate is consumed by the server: any message on it
	// triggers a refetch from the data source.
	TopicSnapshotInvalidate = "board.snapshot.invalidate"
)

// Envelope wraps every published event.
type Envelope struct {
	ID    string          `json:"id"`
	Topic string          `json:"topic"`
	Time  time.Time       `json:"time"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope encodes event under a fresh event id.
func NewEnvelope(topic string, event any) (*Envelope, error) {
	id, err := idgen.NewEventID()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}
	return &Envelope{ID: id, Topic: topic, Time: time.Now().UTC(), Data: data}, nil
}

// Event types

// GroupSummary is one group of a recomputed view.
type GroupSummary struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ViewRecomputed struct {
	Trigger   string          `json:"trigger"`
	Selectors model.Selectors `json:"selectors"`
	Groups    []GroupSummary  `json:"groups"`
	Tickets   int             `json:"tickets"`
	Error     string          `json:"error,omitempty"`
}

type SelectorsChanged struct {
	Selectors model.Selectors `json:"selectors"`
}

type SnapshotLoaded struct {
	Source  string `json:"source"`
	Tickets int    `json:"tickets"`
	Users   int    `json:"users"`
}

type SnapshotInvalidate struct {
	Reason string `json:"reason,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

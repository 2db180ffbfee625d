package sync

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/alfredjeanlab/board/internal/idgen"
	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
	"github.com/alfredjeanlab/board/internal/view"
)

// BoardState is the read side of a board. *view.Board satisfies it.
type BoardState interface {
	Snapshot() *model.Snapshot
	Selectors() model.Selectors
	View() *view.GroupedView
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	ExportID    string    `json:"export_id"`
	Timestamp   time.Time `json:"timestamp"`
	TicketCount int       `json:"ticket_count"`
	UserCount   int       `json:"user_count"`
	GroupCount  int       `json:"group_count"`
	ConfigCount int       `json:"config_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// groupRecord lists one group's ticket ids in display order.
type groupRecord struct {
	Label     string   `json:"label"`
	TicketIDs []string `json:"ticket_ids"`
}

// ExportJSONL writes the board as JSONL to w: a header, the selectors,
// users and tickets sorted by id, the groups of the current view in display
// order, and the configs held by s. s may be nil.
func ExportJSONL(ctx context.Context, b BoardState, s store.Store, w io.Writer) error {
	snap := b.Snapshot()
	var (
		users   []*model.User
		tickets []*model.Ticket
	)
	if snap != nil {
		users = slices.Clone(snap.Users)
		tickets = slices.Clone(snap.Tickets)
	}
	slices.SortFunc(users, func(x, y *model.User) int { return cmp.Compare(x.ID, y.ID) })
	slices.SortFunc(tickets, func(x, y *model.Ticket) int { return cmp.Compare(x.ID, y.ID) })

	var configs []*model.Config
	if s != nil {
		var err error
		if configs, err = s.ListConfigs(ctx, ""); err != nil {
			return fmt.Errorf("list configs: %w", err)
		}
	}

	groups := b.View().Groups()
	exportID, err := idgen.NewExportID()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		ExportID:    exportID,
		Timestamp:   time.Now().UTC(),
		TicketCount: len(tickets),
		UserCount:   len(users),
		GroupCount:  len(groups),
		ConfigCount: len(configs),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	if err := enc.Encode(record{Type: "selectors", Data: b.Selectors()}); err != nil {
		return fmt.Errorf("encode selectors: %w", err)
	}
	for _, u := range users {
		if err := enc.Encode(record{Type: "user", Data: u}); err != nil {
			return fmt.Errorf("encode user %s: %w", u.ID, err)
		}
	}
	for _, t := range tickets {
		if err := enc.Encode(record{Type: "ticket", Data: t}); err != nil {
			return fmt.Errorf("encode ticket %s: %w", t.ID, err)
		}
	}
	for _, g := range groups {
		ids := make([]string, len(g.Tickets))
		for i, t := range g.Tickets {
			ids[i] = t.ID
		}
		if err := enc.Encode(record{Type: "group", Data: groupRecord{Label: g.Label, TicketIDs: ids}}); err != nil {
			return fmt.Errorf("encode group %s: %w", g.Label, err)
		}
	}
	for _, c := range configs {
		if err := enc.Encode(record{Type: "config", Data: c}); err != nil {
			return fmt.Errorf("encode config %s: %w", c.Key, err)
		}
	}

	return nil
}

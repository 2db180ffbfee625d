package source

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/alfredjeanlab/board/internal/model"
)

// Sanitize returns a copy of snap without entries the board cannot place:
// nil entries, tickets that fail model.ValidateTicket, users without an id,
// and repeated ticket or user ids (the first occurrence wins). The
// model.ValidateSnapshot error naming every dropped entry is logged once.
// Slices that were nil stay nil.
func Sanitize(snap *model.Snapshot, logger *slog.Logger) *model.Snapshot {
	if snap == nil {
		return nil
	}
	err := model.ValidateSnapshot(snap)
	if err == nil {
		return &model.Snapshot{Tickets: slices.Clone(snap.Tickets), Users: slices.Clone(snap.Users)}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("dropping invalid snapshot entries", "error", err)

	out := &model.Snapshot{}
	if snap.Users != nil {
		out.Users = make([]*model.User, 0, len(snap.Users))
		seen := make(map[string]bool, len(snap.Users))
		for _, u := range snap.Users {
			if u == nil || strings.TrimSpace(u.ID) == "" || seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			out.Users = append(out.Users, u)
		}
	}
	if snap.Tickets != nil {
		out.Tickets = make([]*model.Ticket, 0, len(snap.Tickets))
		seen := make(map[string]bool, len(snap.Tickets))
		for _, t := range snap.Tickets {
			if model.ValidateTicket(t) != nil || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out.Tickets = append(out.Tickets, t)
		}
	}
	return out
}

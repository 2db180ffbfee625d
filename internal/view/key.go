package view

import (
	"fmt"

	"github.com/alfredjeanlab/board/internal/model"
)

// Unassigned is the group label for tickets whose owner cannot be resolved.
const Unassigned = "Unassigned"

// GroupKey returns the label of the group t belongs to under mode. owner is
// the result of ResolveOwner; nil means unassigned.
//
// A user with an empty display name is labelled Unassigned as well, so that
// every user group has a visible heading.
func GroupKey(t *model.Ticket, owner *model.User, mode model.GroupingMode) (string, error) {
	switch mode {
	case model.GroupByStatus:
		return t.Status, nil
	case model.GroupByUser:
		if owner == nil || owner.Name == "" {
			return Unassigned, nil
		}
		return owner.Name, nil
	case model.GroupByPriority:
		if !t.Priority.IsValid() {
			return "", &model.PriorityError{TicketID: t.ID, Priority: t.Priority}
		}
		name, _ := t.Priority.Name()
		return name, nil
	default:
		return "", fmt.Errorf("grouping %q: %w", mode, model.ErrInvalidMode)
	}
}

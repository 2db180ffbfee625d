package model

import (
	"errors"
	"fmt"
)

// Priority is the urgency of a ticket, 0 (no priority) through 4 (urgent).
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// ErrInvalidPriority is matched by every *PriorityError.
var ErrInvalidPriority = errors.New("invalid priority")

// PriorityError reports a ticket whose priority falls outside 0-4.
type PriorityError struct {
	TicketID string
	Priority Priority
}

func (e *PriorityError) Error() string {
	if e.TicketID == "" {
		return fmt.Sprintf("invalid priority %d: must be between 0 and 4", int(e.Priority))
	}
	return fmt.Sprintf("ticket %s: invalid priority %d: must be between 0 and 4", e.TicketID, int(e.Priority))
}

// Is lets errors.Is(err, ErrInvalidPriority) match.
func (e *PriorityError) Is(target error) bool {
	return target == ErrInvalidPriority
}

// IconKind names the glyph a presentation layer should draw for a priority.
type IconKind string

const (
	IconCircleNone   IconKind = "circle-none"
	IconCircleLow    IconKind = "circle-low"
	IconCircleMedium IconKind = "circle-medium"
	IconCircleHigh   IconKind = "circle-high"
	IconAlert        IconKind = "alert"
)

// PriorityDisplay is the human-facing rendition of a priority.
type PriorityDisplay struct {
	Name string   `json:"name"`
	Icon IconKind `json:"icon"`
}

var priorityTable = [...]PriorityDisplay{
	{Name: "No priority", Icon: IconCircleNone},
	{Name: "Low", Icon: IconCircleLow},
	{Name: "Medium", Icon: IconCircleMedium},
	{Name: "High", Icon: IconCircleHigh},
	{Name: "Urgent", Icon: IconAlert},
}

// IsValid reports whether p is within the priority table.
func (p Priority) IsValid() bool {
	return p >= PriorityNone && p <= PriorityUrgent
}

// Display returns the name and icon for p.
func (p Priority) Display() (PriorityDisplay, error) {
	if !p.IsValid() {
		return PriorityDisplay{}, &PriorityError{Priority: p}
	}
	return priorityTable[p], nil
}

// Name returns the human-readable name for p, e.g. "High" for 3.
func (p Priority) Name() (string, error) {
	d, err := p.Display()
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// PriorityFromName is the inverse of Name. It is used to recover the
// priority behind a group label when grouping by priority.
func PriorityFromName(name string) (Priority, bool) {
	for i, d := range priorityTable {
		if d.Name == name {
			return Priority(i), true
		}
	}
	return 0, false
}

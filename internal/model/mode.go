package model

import (
	"errors"
	"strings"
)

// ErrInvalidMode is returned when a grouping or ordering mode is not recognised.
var ErrInvalidMode = errors.New("invalid view mode")

// GroupingMode selects the key tickets are partitioned by.
type GroupingMode string

const (
	GroupByStatus   GroupingMode = "status"
	GroupByUser     GroupingMode = "user"
	GroupByPriority GroupingMode = "priority"
)

// String returns the string representation of the grouping mode.
func (g GroupingMode) String() string {
	return string(g)
}

// IsValid checks whether the grouping mode is a known value.
func (g GroupingMode) IsValid() bool {
	switch g {
	case GroupByStatus, GroupByUser, GroupByPriority:
		return true
	}
	return false
}

// ParseGroupingMode parses s case-insensitively. ok is false for unknown values.
func ParseGroupingMode(s string) (GroupingMode, bool) {
	g := GroupingMode(strings.ToLower(strings.TrimSpace(s)))
	return g, g.IsValid()
}

// OrderingMode selects how tickets are sorted within a group.
type OrderingMode string

const (
	OrderByPriority OrderingMode = "priority"
	OrderByTitle    OrderingMode = "title"
)

// String returns the string representation of the ordering mode.
func (o OrderingMode) String() string {
	return string(o)
}

// IsValid checks whether the ordering mode is a known value.
func (o OrderingMode) IsValid() bool {
	switch o {
	case OrderByPriority, OrderByTitle:
		return true
	}
	return false
}

// ParseOrderingMode parses s case-insensitively. ok is false for unknown values.
func ParseOrderingMode(s string) (OrderingMode, bool) {
	o := OrderingMode(strings.ToLower(strings.TrimSpace(s)))
	return o, o.IsValid()
}

// Selectors is the user's chosen grouping and ordering.
type Selectors struct {
	Grouping GroupingMode `json:"grouping"`
	Ordering OrderingMode `json:"ordering"`
}

// DefaultSelectors returns grouping by status, ordering by priority.
func DefaultSelectors() Selectors {
	return Selectors{Grouping: GroupByStatus, Ordering: OrderByPriority}
}

// Normalize replaces any unrecognised field with its default.
func (s Selectors) Normalize() Selectors {
	d := DefaultSelectors()
	if !s.Grouping.IsValid() {
		s.Grouping = d.Grouping
	}
	if !s.Ordering.IsValid() {
		s.Ordering = d.Ordering
	}
	return s
}

// IsValid reports whether both modes are recognised.
func (s Selectors) IsValid() bool {
	return s.Grouping.IsValid() && s.Ordering.IsValid()
}

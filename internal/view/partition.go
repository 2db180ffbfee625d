package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/alfredjeanlab/board/internal/model"
)

// Group is one partition of a GroupedView.
type Group struct {
	Label   string          `json:"label"`
	Tickets []*model.Ticket `json:"tickets"`
}

// GroupedView maps group labels to ordered ticket sequences. Groups keep the
// order in which their label first appeared in the input. A GroupedView is
// never modified after Build returns it; callers must treat the slices it
// hands out as read-only.
type GroupedView struct {
	groups []Group
	index  map[string]int
}

func newGroupedView() *GroupedView {
	return &GroupedView{index: make(map[string]int)}
}

// FromGroups rebuilds a view from groups already in display order, such as
// those received over the wire. Labels must be unique.
func FromGroups(groups []Group) (*GroupedView, error) {
	v := newGroupedView()
	for _, g := range groups {
		if _, dup := v.index[g.Label]; dup {
			return nil, fmt.Errorf("grouped view: duplicate group %q", g.Label)
		}
		v.index[g.Label] = len(v.groups)
		v.groups = append(v.groups, g)
	}
	return v, nil
}

func (v *GroupedView) add(label string, t *model.Ticket) {
	i, ok := v.index[label]
	if !ok {
		i = len(v.groups)
		v.index[label] = i
		v.groups = append(v.groups, Group{Label: label})
	}
	v.groups[i].Tickets = append(v.groups[i].Tickets, t)
}

// Groups returns the groups in display order.
func (v *GroupedView) Groups() []Group {
	if v == nil {
		return nil
	}
	return v.groups
}

// Labels returns the group labels in display order.
func (v *GroupedView) Labels() []string {
	if v == nil {
		return nil
	}
	labels := make([]string, len(v.groups))
	for i, g := range v.groups {
		labels[i] = g.Label
	}
	return labels
}

// Group returns the tickets under label.
func (v *GroupedView) Group(label string) ([]*model.Ticket, bool) {
	if v == nil {
		return nil, false
	}
	i, ok := v.index[label]
	if !ok {
		return nil, false
	}
	return v.groups[i].Tickets, true
}

// Len returns the number of groups.
func (v *GroupedView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.groups)
}

// TicketCount returns the number of tickets across all groups.
func (v *GroupedView) TicketCount() int {
	n := 0
	for _, g := range v.Groups() {
		n += len(g.Tickets)
	}
	return n
}

// MarshalJSON encodes the view as a JSON object whose keys appear in group
// order, e.g. {"Todo":[...],"Done":[...]}.
func (v *GroupedView) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range v.Groups() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Label)
		if err != nil {
			return nil, err
		}
		tickets := g.Tickets
		if tickets == nil {
			tickets = []*model.Ticket{}
		}
		val, err := json.Marshal(tickets)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object written by MarshalJSON, keeping key order.
func (v *GroupedView) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("grouped view: expected object, got %v", tok)
	}
	out := newGroupedView()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("grouped view: expected string key, got %v", tok)
		}
		var tickets []*model.Ticket
		if err := dec.Decode(&tickets); err != nil {
			return fmt.Errorf("group %q: %w", label, err)
		}
		if _, dup := out.index[label]; dup {
			return fmt.Errorf("grouped view: duplicate group %q", label)
		}
		out.index[label] = len(out.groups)
		out.groups = append(out.groups, Group{Label: label, Tickets: tickets})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*v = *out
	return nil
}

// Build partitions tickets by the grouping mode and sorts each group by the
// ordering mode, using DefaultLocale for title collation.
func Build(tickets []*model.Ticket, users []*model.User, grouping model.GroupingMode, ordering model.OrderingMode) (*GroupedView, error) {
	return BuildWithLocale(tickets, users, grouping, ordering, DefaultLocale)
}

// BuildWithLocale is Build with an explicit collation locale.
//
// A nil tickets or users slice means the data has not been loaded and yields
// an empty view. Every ticket's priority is checked before anything is
// grouped, so a malformed ticket fails the whole derivation regardless of
// the modes chosen.
func BuildWithLocale(tickets []*model.Ticket, users []*model.User, grouping model.GroupingMode, ordering model.OrderingMode, tag language.Tag) (*GroupedView, error) {
	if !grouping.IsValid() {
		return nil, fmt.Errorf("grouping %q: %w", grouping, model.ErrInvalidMode)
	}
	cmp, err := NewComparator(ordering, tag)
	if err != nil {
		return nil, err
	}
	v := newGroupedView()
	if tickets == nil || users == nil {
		return v, nil
	}

	for i, t := range tickets {
		if t == nil {
			return nil, fmt.Errorf("tickets[%d] is nil", i)
		}
		if !t.Priority.IsValid() {
			return nil, &model.PriorityError{TicketID: t.ID, Priority: t.Priority}
		}
	}

	idx := NewUserIndex(users)
	for _, t := range tickets {
		owner, _ := ResolveOwner(t, idx)
		label, err := GroupKey(t, owner, grouping)
		if err != nil {
			return nil, err
		}
		v.add(label, t)
	}

	for i := range v.groups {
		slices.SortStableFunc(v.groups[i].Tickets, cmp.Compare)
	}
	return v, nil
}

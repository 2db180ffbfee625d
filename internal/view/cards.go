package view

import "github.com/alfredjeanlab/board/internal/model"

// HeaderIconUser is the column icon used when grouping by user.
const HeaderIconUser = "user"

// Card is the presentation projection of a single ticket.
type Card struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Status        string         `json:"status"`
	Tags          []string       `json:"tags"`
	Priority      model.Priority `json:"priority"`
	PriorityName  string         `json:"priority_name"`
	PriorityIcon  model.IconKind `json:"priority_icon"`
	ShowPriority  bool           `json:"show_priority"`
	OwnerName     string         `json:"owner_name,omitempty"`
	OwnerInitials string         `json:"owner_initials,omitempty"`
}

// Column is one group of cards with its header.
type Column struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Icon  string `json:"icon,omitempty"`
	Cards []Card `json:"cards"`
}

// Columns projects v into display columns. idx resolves owners for avatars;
// grouping decides the header icon and whether cards repeat the priority
// badge (they don't when the column already is a priority).
func Columns(v *GroupedView, idx UserIndex, grouping model.GroupingMode) []Column {
	groups := v.Groups()
	cols := make([]Column, 0, len(groups))
	for _, g := range groups {
		col := Column{
			Label: g.Label,
			Count: len(g.Tickets),
			Icon:  headerIcon(g.Label, grouping),
			Cards: make([]Card, 0, len(g.Tickets)),
		}
		for _, t := range g.Tickets {
			col.Cards = append(col.Cards, newCard(t, idx, grouping))
		}
		cols = append(cols, col)
	}
	return cols
}

func headerIcon(label string, grouping model.GroupingMode) string {
	switch grouping {
	case model.GroupByUser:
		return HeaderIconUser
	case model.GroupByPriority:
		if p, ok := model.PriorityFromName(label); ok {
			d, _ := p.Display()
			return string(d.Icon)
		}
	}
	return ""
}

func newCard(t *model.Ticket, idx UserIndex, grouping model.GroupingMode) Card {
	c := Card{
		ID:           t.ID,
		Title:        t.Title,
		Status:       t.Status,
		Tags:         t.Tag,
		Priority:     t.Priority,
		ShowPriority: grouping != model.GroupByPriority,
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if d, err := t.Priority.Display(); err == nil {
		c.PriorityName = d.Name
		c.PriorityIcon = d.Icon
	}
	if u, ok := ResolveOwner(t, idx); ok {
		c.OwnerName = u.Name
		c.OwnerInitials = model.Initials(u.Name)
	}
	return c
}

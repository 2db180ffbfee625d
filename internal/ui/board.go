package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/board/internal/view"
)

// DefaultColumnWidth is the content width of a rendered column.
const DefaultColumnWidth = 30

// BoardRenderer draws board columns side by side.
type BoardRenderer struct {
	Styles Styles
	Width  int
}

// NewBoardRenderer returns a renderer using the global color policy.
func NewBoardRenderer() *BoardRenderer {
	return &BoardRenderer{Styles: NewStyles(ColorEnabled()), Width: DefaultColumnWidth}
}

// Render draws cols left to right. An empty board renders a placeholder.
func (r *BoardRenderer) Render(cols []view.Column) string {
	if len(cols) == 0 {
		return RenderMuted("(no tickets)") + "\n"
	}
	boxes := make([]string, 0, len(cols))
	for _, c := range cols {
		boxes = append(boxes, r.column(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n"
}

func (r *BoardRenderer) column(c view.Column) string {
	var b strings.Builder
	b.WriteString(r.Styles.Header.Render(c.Label))
	b.WriteString(" ")
	b.WriteString(r.Styles.Count.Render(fmt.Sprintf("(%d)", c.Count)))
	for _, card := range c.Cards {
		b.WriteString("\n")
		b.WriteString(r.Styles.Card.Render(r.card(card)))
	}
	return r.Styles.Column.Width(r.Width).Render(b.String())
}

func (r *BoardRenderer) card(c view.Card) string {
	head := r.Styles.ID.Render(c.ID)
	if c.OwnerInitials != "" {
		head += " " + r.Styles.Avatar.Render("["+c.OwnerInitials+"]")
	}
	lines := []string{head, c.Title}

	var meta []string
	if c.ShowPriority && c.PriorityName != "" {
		meta = append(meta, r.Styles.StyleForPriority(c.PriorityIcon).Render(Glyph(c.PriorityIcon)+" "+c.PriorityName))
	}
	for _, tag := range c.Tags {
		meta = append(meta, r.Styles.Tag.Render("#"+tag))
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " "))
	}
	return strings.Join(lines, "\n")
}

// RenderGroups writes a compact list form of a grouped view: one header per
// group followed by its tickets.
func RenderGroups(v *view.GroupedView) string {
	var b strings.Builder
	for i, g := range v.Groups() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", RenderAccent(g.Label), RenderMuted(fmt.Sprintf("(%d)", len(g.Tickets))))
		for _, t := range g.Tickets {
			fmt.Fprintf(&b, "  %s  %s\n", RenderMuted(t.ID), t.Title)
		}
	}
	if b.Len() == 0 {
		return RenderMuted("(no tickets)") + "\n"
	}
	return b.String()
}

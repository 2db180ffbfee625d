package view

import (
	"cmp"
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/alfredjeanlab/board/internal/model"
)

// DefaultLocale is the collation locale used by Build.
var DefaultLocale = language.English

// Comparator orders tickets within a group. It is a strict weak ordering:
// tickets with equal keys compare as 0, and callers must sort stably to keep
// their input order.
//
// A Comparator ordering by title holds a collator and must not be shared
// between goroutines.
type Comparator struct {
	mode     model.OrderingMode
	collator *collate.Collator
}

// NewComparator returns a comparator for mode. tag selects the collation
// rules used for title ordering.
func NewComparator(mode model.OrderingMode, tag language.Tag) (*Comparator, error) {
	switch mode {
	case model.OrderByPriority:
		return &Comparator{mode: mode}, nil
	case model.OrderByTitle:
		return &Comparator{mode: mode, collator: collate.New(tag)}, nil
	default:
		return nil, fmt.Errorf("ordering %q: %w", mode, model.ErrInvalidMode)
	}
}

// Compare returns a negative number when a sorts before b, a positive number
// when b sorts before a, and 0 when their keys are equal.
func (c *Comparator) Compare(a, b *model.Ticket) int {
	if c.mode == model.OrderByPriority {
		// Higher urgency first.
		return cmp.Compare(b.Priority, a.Priority)
	}
	return c.collator.CompareString(a.Title, b.Title)
}

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/board/internal/view"
)

const publishTimeout = 2 * time.Second

// ViewPublisher turns board changes into events. Every change publishes
// TopicViewRecomputed; grouping and ordering changes also publish
// TopicSelectorsChanged. Publish failures are logged and dropped.
type ViewPublisher struct {
	pub    Publisher
	logger *slog.Logger
}

var _ view.Listener = (*ViewPublisher)(nil)

func NewViewPublisher(pub Publisher, logger *slog.Logger) *ViewPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewPublisher{pub: pub, logger: logger}
}

func (p *ViewPublisher) OnViewChanged(c view.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.publish(ctx, TopicViewRecomputed, Recomputed(c))
	if c.Trigger != view.TriggerSnapshot {
		p.publish(ctx, TopicSelectorsChanged, SelectorsChanged{Selectors: c.Selectors})
	}
}

func (p *ViewPublisher) publish(ctx context.Context, topic string, event any) {
	env, err := NewEnvelope(topic, event)
	if err == nil {
		err = p.pub.Publish(ctx, topic, env)
	}
	if err != nil {
		p.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// Recomputed summarises a board change.
func Recomputed(c view.Change) ViewRecomputed {
	ev := ViewRecomputed{
		Trigger:   string(c.Trigger),
		Selectors: c.Selectors,
		Groups:    []GroupSummary{},
		Tickets:   c.View.TicketCount(),
	}
	for _, g := range c.View.Groups() {
		ev.Groups = append(ev.Groups, GroupSummary{Label: g.Label, Count: len(g.Tickets)})
	}
	if c.Err != nil {
		ev.Error = c.Err.Error()
	}
	return ev
}

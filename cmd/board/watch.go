package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/client"
	"github.com/alfredjeanlab/board/internal/events"
	"github.com/alfredjeanlab/board/internal/ui"
)

const (
	watchDebounce   = 200 * time.Millisecond
	watchRetryDelay = 2 * time.Second
	clearScreen     = "\x1b[H\x1b[2J"
)

// watchTopics are the event topics that change what the board shows.
var watchTopics = []string{events.TopicViewRecomputed, events.TopicSelectorsChanged}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Re-render the board whenever it changes",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w := cmd.OutOrStdout()
		render := func() error { return redraw(ctx, boardClient, w) }
		if err := render(); err != nil {
			return err
		}

		var changes <-chan struct{}
		if natsURL != "" {
			ch, closeSub, err := watchNATS(ctx, natsURL)
			if err != nil {
				return err
			}
			defer closeSub()
			changes = ch
		} else {
			changes = watchSSE(ctx, client.NewHTTPClient(httpURL, token))
		}
		return debounceLoop(ctx, changes, render)
	},
}

// redraw clears the terminal and renders the current board.
func redraw(ctx context.Context, c client.BoardClient, w io.Writer) error {
	b, err := c.GetBoard(ctx, "", "")
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("get board: %w", err)
	}
	if jsonOutput {
		return printJSON(w, b)
	}
	if w == os.Stdout && ui.IsTerminal(os.Stdout) {
		fmt.Fprint(w, clearScreen)
	}
	fmt.Fprint(w, ui.RenderMuted(fmt.Sprintf("%s  grouped by %s, ordered by %s", time.Now().Format(time.TimeOnly), b.Selectors.Grouping, b.Selectors.Ordering))+"\n")
	fmt.Fprint(w, ui.NewBoardRenderer().Render(b.Columns))
	return nil
}

// debounceLoop calls render once a burst of changes has settled.
func debounceLoop(ctx context.Context, changes <-chan struct{}, render func() error) error {
	debounce := time.NewTimer(0)
	debounce.Stop()
	select {
	case <-debounce.C:
	default:
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			debounce.Reset(watchDebounce)
		case <-debounce.C:
			if err := render(); err != nil {
				return err
			}
		}
	}
}

// watchSSE follows the server's event stream, reconnecting with
// Last-Event-ID after a dropped connection.
func watchSSE(ctx context.Context, c *client.HTTPClient) <-chan struct{} {
	ch := make(chan struct{}, 1)
	notify := func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	go func() {
		defer close(ch)
		var lastID int64
		for ctx.Err() == nil {
			err := c.StreamEvents(ctx, watchTopics, lastID, func(ev client.StreamEvent) error {
				lastID = ev.ID
				notify()
				return nil
			})
			if ctx.Err() != nil {
				return
			}
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				slog.Error("event stream rejected", "error", err)
				return
			}
			slog.Warn("event stream dropped, reconnecting", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(watchRetryDelay):
			}
			// The stream may have missed events while down.
			notify()
		}
	}()
	return ch
}

// watchNATS subscribes to board events on NATS. A reconnect after a
// disconnect counts as a change so missed events are picked up.
func watchNATS(ctx context.Context, natsURL string) (<-chan struct{}, func(), error) {
	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats: disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats: reconnected")
			notify()
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	msgs, cancel, err := sub.Subscribe("board.>")
	if err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribing to events: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				notify()
			}
		}
	}()
	return out, func() { cancel(); sub.Close() }, nil
}

func init() {
	watchCmd.Flags().String("nats", "", "follow events on this NATS server instead of the SSE stream")
}

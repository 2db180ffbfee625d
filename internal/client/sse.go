package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// StreamEvent is one server-sent event from /v1/events/stream.
type StreamEvent struct {
	ID    int64
	Topic string
	Data  json.RawMessage
}

// StreamEvents connects to the server's event stream and calls fn for every
// event whose topic matches one of topics (NATS-style wildcards, empty means
// all). Events after lastID are replayed first when lastID > 0. It blocks
// until ctx is cancelled, the server closes the stream, or fn returns an
// error.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string, lastID int64, fn func(StreamEvent) error) error {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		path += "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(lastID, 10))
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opening event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	err = readSSE(bufio.NewScanner(resp.Body), fn)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// readSSE parses event blocks separated by blank lines. Comment lines
// (keepalives) are ignored.
func readSSE(sc *bufio.Scanner, fn func(StreamEvent) error) error {
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var ev StreamEvent
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Topic != "" || data.Len() > 0 {
				ev.Data = json.RawMessage(data.String())
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev = StreamEvent{}
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id:"):
			ev.ID, _ = strconv.ParseInt(strings.TrimSpace(line[3:]), 10, 64)
		case strings.HasPrefix(line, "event:"):
			ev.Topic = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(line[5:], " "))
		}
	}
	return sc.Err()
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alfredjeanlab/board/internal/model"
)

// DefaultURL is the public assignment endpoint serving {tickets, users}.
const DefaultURL = "https://api.quicksell.co/v1/internal/frontend-assignment"

// maxBodyBytes caps the payload read from a remote source.
const maxBodyBytes = 16 << 20

// HTTPSource fetches a snapshot with a GET request returning JSON
// {"tickets": [...], "users": [...]}.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates a source for url. A zero timeout means no timeout
// beyond the caller's context.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the endpoint this source reads.
func (s *HTTPSource) URL() string {
	return s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) (*model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching %s: HTTP %d: %s", s.url, resp.StatusCode, body)
	}
	return decodeSnapshot(io.LimitReader(resp.Body, maxBodyBytes))
}

// decodeSnapshot reads a {tickets, users} document. Both arrays must be
// present.
func decodeSnapshot(r io.Reader) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Tickets == nil {
		return nil, fmt.Errorf("decoding snapshot: missing tickets")
	}
	if snap.Users == nil {
		return nil, fmt.Errorf("decoding snapshot: missing users")
	}
	return &snap, nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
)

// HTTPClient implements BoardClient using the board HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ BoardClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// BaseURL returns the server base URL.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

func viewQuery(path, grouping, ordering string) string {
	q := url.Values{}
	if grouping != "" {
		q.Set("grouping", grouping)
	}
	if ordering != "" {
		q.Set("ordering", ordering)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}

func (c *HTTPClient) GetView(ctx context.Context, grouping, ordering string) (*View, error) {
	var body rpc.ViewBody
	if err := c.doJSON(ctx, http.MethodGet, viewQuery("/v1/view", grouping, ordering), nil, &body); err != nil {
		return nil, err
	}
	return &View{Selectors: body.Selectors, View: body.View}, nil
}

func (c *HTTPClient) GetBoard(ctx context.Context, grouping, ordering string) (*rpc.BoardResponse, error) {
	var resp rpc.BoardResponse
	if err := c.doJSON(ctx, http.MethodGet, viewQuery("/v1/board", grouping, ordering), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetSelectors(ctx context.Context) (model.Selectors, error) {
	var sel model.Selectors
	err := c.doJSON(ctx, http.MethodGet, "/v1/selectors", nil, &sel)
	return sel, err
}

func (c *HTTPClient) SetSelectors(ctx context.Context, grouping, ordering *string) (model.Selectors, error) {
	var sel model.Selectors
	err := c.doJSON(ctx, http.MethodPut, "/v1/selectors", updateOf(grouping, ordering), &sel)
	return sel, err
}

func (c *HTTPClient) Refresh(ctx context.Context) (*rpc.RefreshResponse, error) {
	var resp rpc.RefreshResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSnapshot returns the snapshot the server's view is derived from.
func (c *HTTPClient) GetSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp rpc.HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

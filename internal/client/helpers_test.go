package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/server"
	"github.com/alfredjeanlab/board/internal/store/memory"
	"github.com/alfredjeanlab/board/internal/view"
)

// staticSource always returns the same snapshot.
type staticSource struct{ snap *model.Snapshot }

func (s staticSource) Fetch(context.Context) (*model.Snapshot, error) { return s.snap, nil }

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Tickets: []*model.Ticket{
			{ID: "T1", Title: "Fix login", Status: model.StatusTodo, Priority: model.PriorityHigh, UserID: model.StringPtr("U1"), Tag: []string{"auth"}},
			{ID: "T2", Title: "Archive logs", Status: model.StatusDone, Priority: model.PriorityLow, Tag: []string{}},
			{ID: "T3", Title: "Billing outage", Status: model.StatusTodo, Priority: model.PriorityUrgent, Tag: []string{}},
		},
		Users: []*model.User{{ID: "U1", Name: "Ann Lee"}},
	}
}

// newBoardServer returns a loaded server backed by the in-memory store.
func newBoardServer(t *testing.T) *server.BoardServer {
	t.Helper()
	b := view.NewBoard(model.DefaultSelectors())
	s := server.NewBoardServer(b, memory.New(), staticSource{snap: testSnapshot()}, nil, nil)
	if _, err := s.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("RefreshSnapshot: %v", err)
	}
	return s
}

// newHTTPTestClient serves s over httptest and returns a client for it.
func newHTTPTestClient(t *testing.T, s *server.BoardServer, token string) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(s.NewHTTPHandler(token))
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL, token)
}

func ticketIDs(tickets []*model.Ticket) []string {
	ids := make([]string, len(tickets))
	for i, tk := range tickets {
		ids[i] = tk.ID
	}
	return ids
}

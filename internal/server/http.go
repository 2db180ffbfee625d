package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/rpc"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *BoardServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/view", s.handleGetView)
	mux.HandleFunc("GET /v1/board", s.handleGetBoard)
	mux.HandleFunc("GET /v1/selectors", s.handleGetSelectors)
	mux.HandleFunc("PUT /v1/selectors", s.handleSetSelectors)
	mux.HandleFunc("GET /v1/snapshot", s.handleGetSnapshot)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/configs", s.handleListConfigs)
	mux.HandleFunc("GET /v1/configs/{key...}", s.handleGetConfig)
	mux.HandleFunc("DELETE /v1/configs/{key...}", s.handleDeleteConfig)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return RecoveryMiddleware(s.logger, AuthMiddleware(authToken, mux))
}

func (s *BoardServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rpc.HealthResponse{Status: "ok"})
}

// handleGetView handles GET /v1/view?grouping=&ordering=.
func (s *BoardServer) handleGetView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, v, err := s.currentView(q.Get("grouping"), q.Get("ordering"))
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.ViewBody{Selectors: sel, View: v})
}

// handleGetBoard handles GET /v1/board?grouping=&ordering=.
func (s *BoardServer) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.boardColumns(q.Get("grouping"), q.Get("ordering"))
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *BoardServer) handleGetSelectors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Selectors())
}

// handleSetSelectors handles PUT /v1/selectors. Omitted fields keep their
// current value.
func (s *BoardServer) handleSetSelectors(w http.ResponseWriter, r *http.Request) {
	var req rpc.SelectorsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sel, err := s.applySelectors(req)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// applySelectors applies u to the board. A derivation failure on the new
// selectors is logged; the selectors still change.
func (s *BoardServer) applySelectors(u rpc.SelectorsUpdate) (model.Selectors, error) {
	sel, err := u.Apply(s.board.Selectors())
	if err != nil {
		return sel, inputError(err.Error())
	}
	if err := s.board.SetSelectors(sel); err != nil {
		if errors.Is(err, model.ErrInvalidMode) {
			return sel, inputError(err.Error())
		}
		s.logger.Warn("view derivation failed after selector change", "grouping", sel.Grouping, "ordering", sel.Ordering, "error", err)
	}
	return s.board.Selectors(), nil
}

// handleGetSnapshot handles GET /v1/snapshot. Before the first load both
// arrays are null.
func (s *BoardServer) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotOrEmpty())
}

func (s *BoardServer) snapshotOrEmpty() *model.Snapshot {
	if snap := s.board.Snapshot(); snap != nil {
		return snap
	}
	return &model.Snapshot{}
}

// handleRefresh handles POST /v1/refresh. A snapshot that loads but cannot
// be derived is kept and reported as 422.
func (s *BoardServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.RefreshSnapshot(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.RefreshResponse{Tickets: len(snap.Tickets), Users: len(snap.Users)})
}

// writeViewError maps board errors onto HTTP statuses.
func writeViewError(w http.ResponseWriter, err error) {
	var ie inputError
	switch {
	case errors.As(err, &ie), errors.Is(err, model.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidPriority):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"errors"
	"net/http"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
)

// handleGetConfig handles GET /v1/configs/{key}.
func (s *BoardServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	config, err := s.getConfig(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "config not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get config")
		return
	}

	writeJSON(w, http.StatusOK, config)
}

// handleListConfigs handles GET /v1/configs?namespace=... An empty namespace
// lists everything.
func (s *BoardServer) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.listConfigsWithBuiltins(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list configs")
		return
	}
	if configs == nil {
		configs = []*model.Config{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// handleDeleteConfig handles DELETE /v1/configs/{key}. Deleting a stored
// preference resets the matching board selector to its default.
func (s *BoardServer) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := s.deleteConfig(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete config")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

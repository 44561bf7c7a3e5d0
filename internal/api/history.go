package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/liamashdown/wardai/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (s *Server) handleHistoryAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	rows, err := s.history.RecentAlerts(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to load alert history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load alert history"})
		return
	}
	if rows == nil {
		rows = []storage.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": rows})
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	a, err := s.history.LatestAssessment(r.Context(), address)
	if err != nil {
		s.log.WithError(err).WithField("token", address).Error("Failed to load assessment history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load assessment history"})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No assessment recorded for token"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

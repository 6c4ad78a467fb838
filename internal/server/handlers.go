package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
	"github.com/castordeluca/coinwatch/internal/stats"
	"github.com/castordeluca/coinwatch/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"coins": s.engine.Coins()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	coin := strings.TrimSpace(r.URL.Query().Get("coin"))
	if coin == "" {
		writeError(w, http.StatusBadRequest, "coin is required")
		return
	}

	snapshot, err := s.engine.Latest(r.Context(), coin)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleDeviation(w http.ResponseWriter, r *http.Request) {
	coin := strings.TrimSpace(r.URL.Query().Get("coin"))
	if coin == "" {
		writeError(w, http.StatusBadRequest, "coin is required")
		return
	}

	// A missing limit selects the engine default; a supplied one must
	// already be in range.
	window, ok := intParam(w, r, "limit", stats.MinWindow)
	if !ok {
		return
	}

	d, err := s.engine.Dispersion(r.Context(), coin, window)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	coin := strings.TrimSpace(r.URL.Query().Get("coin"))
	if coin == "" {
		writeError(w, http.StatusBadRequest, "coin is required")
		return
	}

	page, ok := intParam(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", 1)
	if !ok {
		return
	}

	h, err := s.engine.History(r.Context(), coin, page, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("coins")

	var coins []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			coins = append(coins, c)
		}
	}
	if len(coins) == 0 {
		writeError(w, http.StatusBadRequest, "coins is required")
		return
	}

	items, err := s.engine.Compare(r.Context(), coins)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Snapshot{"items": items})
}

// intParam parses an optional positive integer query parameter. A
// missing parameter yields 0 so the engine applies its default.
func intParam(w http.ResponseWriter, r *http.Request, name string, min int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		writeError(w, http.StatusBadRequest, name+" must be an integer >= "+strconv.Itoa(min))
		return 0, false
	}
	return n, true
}

// writeDomainError maps engine errors onto status codes. Unexpected
// errors are logged with detail but reported opaquely.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stats.ErrInvalidAsset):
		writeError(w, http.StatusBadRequest, "unsupported coin")
	case errors.Is(err, stats.ErrInvalidParam):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "no data for coin")
	case errors.Is(err, stats.ErrInsufficientData):
		writeError(w, http.StatusNotFound, "not enough data")
	default:
		s.logger.Error("query failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/curatord/curator/internal/selector"
	"github.com/curatord/curator/internal/store"
)

func (s *Server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	var it store.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if it.ID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := s.db.SaveItem(&it); err != nil {
		// The schema rejects unknown categories, sources, and
		// out-of-range importance; surface that as a client error.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []store.Item
		err   error
	)
	if cat := r.URL.Query().Get("category"); cat != "" {
		items, err = s.db.ListByCategory(cat)
	} else {
		items, err = s.db.ListItems()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.db.GetItem(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.db.DeleteItem(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		Signal string `json:"signal"`
		Clear  bool   `json:"clear"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Signal == "" {
		writeError(w, http.StatusBadRequest, "signal required")
		return
	}

	it, err := s.db.GetItem(itemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	if req.Clear {
		err = s.db.ClearFeedback(itemID, req.Signal)
	} else {
		err = s.db.SetFeedback(itemID, req.Signal)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// selectRequest is the wire form of one selection call. Quality is a
// pointer so "omitted" falls back to the server default instead of 0.
type selectRequest struct {
	Intent    string   `json:"intent"`
	Domain    string   `json:"domain"`
	Role      string   `json:"role"`
	Category  string   `json:"category"`
	Quality   *float64 `json:"quality"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
	Turn      int      `json:"turn"`
}

// runSelection loads candidates and feedback from the store and runs
// the selector. Used by both the select route and the rendered context
// route.
func (s *Server) runSelection(req selectRequest) (selector.TraceEntry, error) {
	var (
		items []store.Item
		err   error
	)
	if req.Category != "" {
		items, err = s.db.ListByCategory(req.Category)
	} else {
		items, err = s.db.ListItems()
	}
	if err != nil {
		return selector.TraceEntry{}, err
	}

	fb, err := s.db.FeedbackSets()
	if err != nil {
		return selector.TraceEntry{}, err
	}

	candidates := make([]selector.CandidateItem, len(items))
	for i, it := range items {
		candidates[i] = it.Candidate()
	}

	intent := selector.Intent(req.Intent)
	if intent == "" {
		intent = selector.IntentGeneral
	}
	role := selector.Role(req.Role)
	if role == "" {
		// No role claim gets the most restricted view.
		role = selector.RoleAssistant
	}
	quality := s.quality
	if req.Quality != nil {
		quality = *req.Quality
	}

	sctx := selector.ScoringContext{
		Intent:      intent,
		Domain:      selector.Domain(req.Domain),
		Role:        role,
		Pinned:      fb.Pinned,
		Reused:      fb.Reused,
		Corrected:   fb.Corrected,
		Dismissed:   fb.Dismissed,
		CurrentTime: time.Now(),
	}
	meta := selector.Meta{SessionID: req.SessionID, UserID: req.UserID, Turn: req.Turn}

	entry := s.sel.SelectRun(candidates, quality, sctx, meta)
	if err := s.db.SaveRun(entry); err != nil {
		// The selection itself succeeded; losing the audit row is
		// worth a log line, not a failed request.
		log.Printf("persist run %s: %v", entry.RunID, err)
	}
	return entry, nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quality != nil && (*req.Quality < 0 || *req.Quality > 1) {
		writeError(w, http.StatusBadRequest, "quality must be in [0,1]")
		return
	}

	entry, err := s.runSelection(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": entry.RunID,
		"result": entry.Result,
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := selectRequest{
		Intent:    q.Get("intent"),
		Domain:    q.Get("domain"),
		Role:      q.Get("role"),
		Category:  q.Get("category"),
		SessionID: q.Get("session_id"),
		UserID:    q.Get("user_id"),
	}
	if turn := q.Get("turn"); turn != "" {
		if n, err := strconv.Atoi(turn); err == nil {
			req.Turn = n
		}
	}

	entry, err := s.runSelection(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"run_id":  entry.RunID,
		"context": renderContext(entry.Result),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.db.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunDebug(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	var res selector.SelectionResult
	if err := json.Unmarshal(run.Result, &res); err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt run payload")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(selector.FormatSelectionDebug(res)))
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sel.Config())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg selector.BudgetConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.sel.UpdateConfig(cfg); err != nil {
		var cerr *selector.ConfigError
		if errors.As(err, &cerr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":  "invalid config",
				"field":  cerr.Field,
				"reason": cerr.Reason,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sel.Config())
}

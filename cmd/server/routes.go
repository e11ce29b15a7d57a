package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/report"
)

const defaultListLimit = 20

// newMux creates the HTTP router: health checks, the quiz websocket and the
// attempt API.
func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.Handle("GET /ws", a.play)
	mux.HandleFunc("GET /api/bank", a.handleBank)
	mux.HandleFunc("GET /api/attempts", a.handleListAttempts)
	mux.HandleFunc("GET /api/attempts/{id}", a.handleGetAttempt)
	mux.HandleFunc("GET /api/attempts/{id}/report.xlsx", a.handleReport)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := a.ready(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (a *app) handleBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"title":          a.cfg.Quiz.Title,
		"questions":      a.bank.Len(),
		"question_count": a.cfg.Quiz.QuestionCount,
		"duration":       a.cfg.Quiz.Duration.String(),
	})
}

func (a *app) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	attempts, err := a.store.List(r.Context(), limit)
	if err != nil {
		slog.Error("list attempts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (a *app) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	at, ok := a.lookupAttempt(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.withChoices(*at))
}

// withChoices fills each item's answer block from the bank. Items whose
// question is no longer in the bank are left without one.
func (a *app) withChoices(at attempt.Attempt) attempt.Attempt {
	items := make([]attempt.Item, len(at.Items))
	for i, it := range at.Items {
		if q, ok := a.bank.Question(it.QuestionID); ok {
			it.Choices = q.Choices()
		}
		items[i] = it
	}
	at.Items = items
	return at
}

func (a *app) handleReport(w http.ResponseWriter, r *http.Request) {
	at, ok := a.lookupAttempt(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attempt-%s.xlsx"`, at.ID))
	if err := report.Write(w, *at); err != nil {
		slog.Error("report write failed", "attempt_id", at.ID, "error", err)
	}
}

func (a *app) lookupAttempt(w http.ResponseWriter, r *http.Request) (*attempt.Attempt, bool) {
	id := r.PathValue("id")
	at, err := a.store.Get(r.Context(), id)
	if errors.Is(err, attempt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "attempt not found")
		return nil, false
	}
	if err != nil {
		slog.Error("get attempt failed", "attempt_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attempt")
		return nil, false
	}
	return at, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

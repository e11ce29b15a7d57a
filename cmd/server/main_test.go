package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const testDoc = `= Practice

[TIP]
====
Which keyword declares a constant?
====
[IMPORTANT]
====
* [x] final
* [ ] static
====

[TIP]
====
Which types are primitives?
====
[IMPORTANT]
====
* [x] int
* [ ] String
* [x] boolean
====
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.adoc")
	if err := os.WriteFile(path, []byte(testDoc), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return &config.Config{
		Quiz: config.QuizConfig{
			Title:         "OCA",
			Source:        path,
			QuestionCount: 15,
			Duration:      45 * time.Minute,
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(t.Context(), testConfig(t))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestHealthEndpoints(t *testing.T) {
	mux := newMux(newTestApp(t))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewApp_SourceUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quiz.Source = filepath.Join(t.TempDir(), "missing.adoc")

	_, err := newApp(t.Context(), cfg)
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Errorf("newApp() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestBankEndpoint(t *testing.T) {
	mux := newMux(newTestApp(t))

	req := httptest.NewRequest(http.MethodGet, "/api/bank", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Title     string `json:"title"`
		Questions int    `json:"questions"`
		Duration  string `json:"duration"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Title != "OCA" || body.Questions != 2 || body.Duration != "45m0s" {
		t.Errorf("body = %+v", body)
	}
}

func TestAttemptEndpoints(t *testing.T) {
	a := newTestApp(t)
	mux := newMux(a)

	started := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	id, err := a.store.Save(context.Background(), attempt.Attempt{
		Title:      "OCA",
		StartedAt:  started,
		FinishedAt: started.Add(20 * time.Minute),
		Errors:     1,
		Items: []attempt.Item{
			{QuestionID: a.bank.All()[0].ID(), Prompt: "Q1", Correct: []bool{true, false}, Selected: []bool{false, false}, Errors: 1},
			{QuestionID: "retired", Position: 1, Prompt: "Q2", Correct: []bool{true}, Selected: []bool{true}},
		},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"list", "/api/attempts", http.StatusOK},
		{"list with limit", "/api/attempts?limit=1", http.StatusOK},
		{"bad limit", "/api/attempts?limit=zero", http.StatusBadRequest},
		{"get", "/api/attempts/" + id, http.StatusOK},
		{"get unknown", "/api/attempts/nope", http.StatusNotFound},
		{"report", "/api/attempts/" + id + "/report.xlsx", http.StatusOK},
		{"report unknown", "/api/attempts/nope/report.xlsx", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	t.Run("get body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/attempts/"+id, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		var got attempt.Attempt
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.ID != id || got.Errors != 1 || len(got.Items) != 2 {
			t.Fatalf("attempt = %+v", got)
		}
		if want := "* [ ] final\n* [ ] static\n"; got.Items[0].Choices != want {
			t.Errorf("Items[0].Choices = %q, want %q", got.Items[0].Choices, want)
		}
		if got.Items[1].Choices != "" {
			t.Errorf("Items[1].Choices = %q, want empty for a question not in the bank", got.Items[1].Choices)
		}
	})

	t.Run("report body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/attempts/"+id+"/report.xlsx", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("OpenReader() error = %v", err)
		}
		defer f.Close()

		title, err := f.GetCellValue("Summary", "B1")
		if err != nil {
			t.Fatalf("GetCellValue() error = %v", err)
		}
		if title != "OCA" {
			t.Errorf("report title = %q, want OCA", title)
		}
	})
}

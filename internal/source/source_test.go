package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/source"
)

const doc = "[TIP]\n====\nQ1\n====\n[IMPORTANT]\n====\n* [x] A\n* [ ] B\n====\n"

func TestNew_PicksSource(t *testing.T) {
	if _, ok := source.New("https://example.com/q.adoc").(*source.HTTP); !ok {
		t.Error("New(https URL) should return an HTTP source")
	}
	if _, ok := source.New("./questions.adoc").(source.File); !ok {
		t.Error("New(path) should return a File source")
	}
}

func TestFile_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.adoc")
	os.WriteFile(path, []byte(doc), 0o644)

	got, err := source.File{Path: path}.Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != doc {
		t.Errorf("Fetch() = %q, want %q", got, doc)
	}
}

func TestFile_FetchDirectory(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "chapter2"), 0o755)
	os.WriteFile(filepath.Join(dir, "chapter1.adoc"), []byte(strings.Replace(doc, "Q1", "first", 1)), 0o644)
	os.WriteFile(filepath.Join(dir, "chapter2", "more.adoc"), []byte(strings.Replace(doc, "Q1", "second", 1)), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(strings.Replace(doc, "Q1", "ignored", 1)), 0o644)

	bank, err := quiz.LoadBank(t.Context(), source.File{Path: dir})
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if bank.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bank.Len())
	}
	if bank.All()[0].Prompt() != "first" || bank.All()[1].Prompt() != "second" {
		t.Errorf("prompts = %q, %q; want first, second", bank.All()[0].Prompt(), bank.All()[1].Prompt())
	}
}

func TestFile_Missing(t *testing.T) {
	_, err := quiz.LoadBank(t.Context(), source.File{Path: filepath.Join(t.TempDir(), "nope.adoc")})
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Errorf("LoadBank() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestHTTP_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocaQuestions.adoc" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(strings.ReplaceAll(doc, "\n", "\r\n")))
	}))
	defer server.Close()

	got, err := source.NewHTTP(server.URL + "/ocaQuestions.adoc").Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != doc {
		t.Errorf("Fetch() = %q, want LF-normalized document", got)
	}
}

func TestHTTP_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := quiz.LoadBank(t.Context(), source.NewHTTP(server.URL, source.WithHTTPClient(server.Client())))
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Errorf("LoadBank() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestHTTP_DocumentTooLarge(t *testing.T) {
	body := strings.Repeat("filler\n", 16) + doc
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	src := source.NewHTTP(server.URL, source.WithHTTPClient(server.Client()), source.WithMaxSize(64))
	bank, err := quiz.LoadBank(t.Context(), src)
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Fatalf("LoadBank() error = %v, want ErrSourceUnavailable", err)
	}
	if bank != nil {
		t.Errorf("LoadBank() bank = %v, want nil", bank)
	}
	if !strings.Contains(err.Error(), "document exceeds 64 bytes") {
		t.Errorf("LoadBank() error = %v", err)
	}

	// A document exactly at the limit is accepted.
	src = source.NewHTTP(server.URL, source.WithHTTPClient(server.Client()), source.WithMaxSize(int64(len(body))))
	bank, err = quiz.LoadBank(t.Context(), src)
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if bank.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bank.Len())
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"plain", []byte("a\nb"), "a\nb"},
		{"crlf", []byte("a\r\nb\rc"), "a\nb\nc"},
		{"utf8-bom", append([]byte{0xEF, 0xBB, 0xBF}, "[TIP]"...), "[TIP]"},
		{"utf16le-bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"nfc", []byte("é"), "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := source.Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

type memoryCache struct {
	data    map[string]string
	getErr  error
	sets    int
	lastTTL time.Duration
}

func (m *memoryCache) GetText(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) SetText(_ context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	m.sets++
	m.lastTTL = ttl
	return nil
}

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Fetch(context.Context) (string, error) {
	c.calls++
	return doc, c.err
}

func TestCached_ReadThrough(t *testing.T) {
	inner := &countingSource{}
	mc := &memoryCache{data: map[string]string{}}
	src := source.Cached{Source: inner, Cache: mc, Key: "oca", TTL: time.Minute}

	for range 3 {
		got, err := src.Fetch(t.Context())
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got != doc {
			t.Errorf("Fetch() = %q, want %q", got, doc)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner source called %d times, want 1", inner.calls)
	}
	if mc.sets != 1 || mc.lastTTL != time.Minute {
		t.Errorf("cache sets = %d ttl = %s, want 1 and 1m", mc.sets, mc.lastTTL)
	}
}

func TestCached_CacheErrorFallsThrough(t *testing.T) {
	inner := &countingSource{}
	mc := &memoryCache{data: map[string]string{}, getErr: errors.New("connection reset")}

	got, err := source.Cached{Source: inner, Cache: mc, Key: "oca"}.Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != doc || inner.calls != 1 {
		t.Errorf("Fetch() = %q after %d inner calls, want document after 1", got, inner.calls)
	}
}

func TestCached_SourceError(t *testing.T) {
	inner := &countingSource{err: errors.New("offline")}
	mc := &memoryCache{data: map[string]string{}}

	_, err := source.Cached{Source: inner, Cache: mc, Key: "oca"}.Fetch(t.Context())
	if err == nil {
		t.Fatal("Fetch() should fail when the source fails on a miss")
	}
	if mc.sets != 0 {
		t.Error("failed fetch should not be cached")
	}
}

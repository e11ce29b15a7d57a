// Package source retrieves question documents from files, directories and
// HTTP endpoints, optionally through a Redis read-through cache.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// maxDocumentSize is the default bound on an HTTP document. Larger
// responses are rejected rather than truncated.
const maxDocumentSize = 16 << 20

// New returns an HTTP source for http(s) URLs and a file source otherwise.
func New(location string) quiz.Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTP(location)
	}
	return File{Path: location}
}

// File reads a document from disk. When Path is a directory every *.adoc
// file below it is read in lexical path order and the documents are joined
// with a blank line.
type File struct {
	Path string
}

func (f File) Fetch(ctx context.Context) (string, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", f.Path, err)
	}
	if !info.IsDir() {
		return readFile(f.Path)
	}

	var paths []string
	err = filepath.Walk(f.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".adoc") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", f.Path, err)
	}
	sort.Strings(paths)

	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		doc, err := readFile(p)
		if err != nil {
			return "", err
		}
		docs = append(docs, doc)
	}
	slog.Debug("question documents read", "dir", f.Path, "files", len(docs))
	return strings.Join(docs, "\n\n"), nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// HTTP fetches a document with a GET request.
type HTTP struct {
	url     string
	client  *http.Client
	maxSize int64
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithMaxSize sets the largest document accepted, in bytes.
func WithMaxSize(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxSize = n
	}
}

// NewHTTP creates an HTTP source for url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		maxSize: maxDocumentSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", h.url, resp.StatusCode)
	}
	if int64(len(body)) > h.maxSize {
		return "", fmt.Errorf("fetch %s: document exceeds %d bytes", h.url, h.maxSize)
	}

	return Decode(body)
}

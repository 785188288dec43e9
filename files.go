package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnavailable reports a failure to acquire the source document. Surfaced
// as a client error, distinct from internal failures.
var ErrUnavailable = errors.New("document unavailable")

// Fetcher downloads source documents with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return content, nil
}

// FileManager owns the scoped temporary copies of ingested documents.
type FileManager struct {
	log *slog.Logger
	dir string
}

func NewFileManager(log *slog.Logger, dir string) (*FileManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &FileManager{log: log, dir: dir}, nil
}

// Save writes content under a fresh uuid name, keeping the original
// extension so readers can pick a format.
func (m *FileManager) Save(content []byte, filename string) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}

	m.log.Debug("document saved", "path", path)
	return path, nil
}

// Cleanup removes a saved document. Best effort: a failed removal is logged,
// never propagated.
func (m *FileManager) Cleanup(path string) {
	if err := os.Remove(path); err != nil {
		m.log.Warn("failed to clean up document", "path", path, "error", err)
		return
	}
	m.log.Debug("document removed", "path", path)
}

// DocumentID derives the namespace key for a document: deterministic when a
// content hash is supplied, random otherwise.
func DocumentID(filename, contentHash string) string {
	if contentHash != "" {
		sum := sha256.Sum256([]byte(filename + "_" + contentHash))
		return hex.EncodeToString(sum[:])[:16]
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

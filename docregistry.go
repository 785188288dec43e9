package main

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type FileReader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

// RegistryStore is the index surface the folder registry needs.
type RegistryStore interface {
	Upsert(ctx context.Context, docID string, chunks []string, vectors [][]float32) error
	Forget(ctx context.Context, docID string) error
}

type trackedDoc struct {
	docID string
	crc   uint32
}

// DocRegistry keeps a local document folder ingested into the vector index.
// Documents get deterministic path-derived ids; re-ingesting a changed file
// replaces its collection rather than appending to it.
type DocRegistry struct {
	log              *slog.Logger
	root             string
	store            RegistryStore
	chunker          Chunker
	embedder         Embedder
	readers          []FileReader
	mergeEventsDelay time.Duration

	mu      sync.Mutex
	tracked map[string]trackedDoc
}

func NewDocRegistry(
	log *slog.Logger,
	root string,
	store RegistryStore,
	chunker Chunker,
	embedder Embedder,
	readers []FileReader,
	mergeEventsDelay time.Duration,
) *DocRegistry {
	return &DocRegistry{
		log:              log,
		root:             root,
		store:            store,
		chunker:          chunker,
		embedder:         embedder,
		readers:          readers,
		mergeEventsDelay: mergeEventsDelay,
		tracked:          make(map[string]trackedDoc),
	}
}

// Sync brings the index in line with the folder: new and changed files are
// ingested, removed files are forgotten.
func (dr *DocRegistry) Sync(ctx context.Context) error {
	disk := make(map[string]uint32)
	err := filepath.Walk(dr.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		reader := dr.findReader(path)
		if reader == nil {
			dr.log.Warn("unsupported file", "path", path)
			return nil
		}

		text, err := reader.ReadText(path)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", path, err)
		}

		disk[path] = crc32.Checksum([]byte(text), crc32.IEEETable)
		return nil
	})
	if err != nil {
		return err
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()

	for path, crc := range disk {
		known, ok := dr.tracked[path]
		if ok && known.crc == crc {
			continue
		}
		if err := dr.ingest(ctx, path, crc, known); err != nil {
			return err
		}
	}

	for path, known := range dr.tracked {
		if _, ok := disk[path]; ok {
			continue
		}
		if err := dr.store.Forget(ctx, known.docID); err != nil {
			return fmt.Errorf("failed to forget document %s: %w", path, err)
		}
		delete(dr.tracked, path)
		dr.log.Info("document forgotten", "path", path)
	}

	return nil
}

// Watch re-syncs the folder whenever it changes. Bursts of events within
// the debounce window collapse into a single sync.
func (dr *DocRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dr.root); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dr.root, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				dr.log.Debug("fs event", "op", event.Op.String(), "path", event.Name)
				if timer == nil {
					timer = time.AfterFunc(dr.mergeEventsDelay, func() {
						fire <- struct{}{}
					})
				} else {
					timer.Reset(dr.mergeEventsDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				dr.log.Error("watch error", "error", err)
			case <-fire:
				timer = nil
				if err := dr.Sync(ctx); err != nil {
					dr.log.Error("sync failed", "error", err)
				}
			}
		}
	}()

	return nil
}

// ingest replaces any previous collection for the file, then chunks, embeds
// and indexes the current content. Caller holds dr.mu.
func (dr *DocRegistry) ingest(ctx context.Context, path string, crc uint32, known trackedDoc) error {
	if known.docID != "" {
		if err := dr.store.Forget(ctx, known.docID); err != nil {
			return fmt.Errorf("failed to replace document %s: %w", path, err)
		}
	}

	reader := dr.findReader(path)
	if reader == nil {
		return fmt.Errorf("unable to find reader for file: %s", path)
	}

	text, err := reader.ReadText(path)
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}

	docID := DocumentID(path, fmt.Sprintf("%08x", crc))
	chunks := dr.chunker.Chunk(text)
	vectors, err := dr.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", path, err)
	}

	if err := dr.store.Upsert(ctx, docID, chunks, vectors); err != nil {
		return fmt.Errorf("failed to store document %s: %w", path, err)
	}

	dr.tracked[path] = trackedDoc{docID: docID, crc: crc}
	dr.log.Info("document ingested", "path", path, "doc_id", docID, "chunks", len(chunks))
	return nil
}

func (dr *DocRegistry) findReader(path string) FileReader {
	for _, r := range dr.readers {
		if r.CanRead(path) {
			return r
		}
	}

	return nil
}

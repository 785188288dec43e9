// Package docstore stores document chunks with their embeddings in Chroma,
// one collection per document id.
package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// collection is the slice of chroma.Collection the store actually uses.
type collection interface {
	Add(ctx context.Context, opts ...chroma.CollectionAddOption) error
	Query(ctx context.Context, opts ...chroma.CollectionQueryOption) (chroma.QueryResult, error)
}

type colEntry struct {
	col      collection
	lastUsed time.Time
}

// ChromaStore maps document ids to Chroma collections. Collections are
// created lazily on first upsert and dropped by Forget or TTL eviction.
// The map is guarded by a mutex; everything else is delegated to Chroma.
type ChromaStore struct {
	mu   sync.Mutex
	cols map[string]*colEntry
	ttl  time.Duration

	getOrCreate func(ctx context.Context, name string) (collection, error)
	drop        func(ctx context.Context, name string) error
}

type ChromaStoreConfig struct {
	BaseURL string
	TTL     time.Duration // zero disables eviction
}

func NewChromaStore(cfg ChromaStoreConfig) (*ChromaStore, error) {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	return &ChromaStore{
		cols: make(map[string]*colEntry),
		ttl:  cfg.TTL,
		getOrCreate: func(ctx context.Context, name string) (collection, error) {
			return client.GetOrCreateCollection(ctx, name)
		},
		drop: func(ctx context.Context, name string) error {
			return client.DeleteCollection(ctx, name)
		},
	}, nil
}

// Upsert appends (id, chunk, vector) triples under docID, creating the
// collection on first use. Ids are "{docID}_{i}" in chunk order.
func (s *ChromaStore) Upsert(ctx context.Context, docID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	entry, err := s.entry(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to open collection for %s: %w", docID, err)
	}

	ids := make([]chroma.DocumentID, len(chunks))
	embs := make([]embeddings.Embedding, len(chunks))
	for i := range chunks {
		ids[i] = chroma.DocumentID(fmt.Sprintf("%s_%d", docID, i))
		embs[i] = embeddings.NewEmbeddingFromFloat32(vectors[i])
	}

	err = entry.col.Add(ctx,
		chroma.WithIDs(ids...),
		chroma.WithTexts(chunks...),
		chroma.WithEmbeddings(embs...),
	)
	if err != nil {
		return fmt.Errorf("failed to store chunks for %s: %w", docID, err)
	}

	return nil
}

// Search returns the topK chunks of docID nearest to the query vector.
// An unknown docID yields ErrNotFound.
func (s *ChromaStore) Search(ctx context.Context, docID string, vector []float32, topK int) ([]SearchResult, error) {
	s.mu.Lock()
	entry, ok := s.cols[docID]
	if ok {
		entry.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}

	r, err := entry.col.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", docID, err)
	}

	groups := r.GetDocumentsGroups()
	if len(groups) == 0 {
		return []SearchResult{}, nil
	}

	docs := groups[0]
	scores := r.GetDistancesGroups()[0]
	res := make([]SearchResult, 0, len(docs))
	for i := range docs {
		res = append(res, SearchResult{
			Text:  docs[i].ContentString(),
			Score: float32(scores[i]),
		})
	}

	return res, nil
}

// Forget drops the collection for docID. Unknown ids are a no-op.
func (s *ChromaStore) Forget(ctx context.Context, docID string) error {
	s.mu.Lock()
	_, ok := s.cols[docID]
	delete(s.cols, docID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.drop(ctx, docID); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", docID, err)
	}

	return nil
}

// EvictExpired drops collections idle for longer than the configured TTL
// and returns the evicted document ids. A zero TTL disables eviction.
func (s *ChromaStore) EvictExpired(ctx context.Context) []string {
	if s.ttl == 0 {
		return nil
	}

	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	var expired []string
	for id, entry := range s.cols {
		if entry.lastUsed.Before(cutoff) {
			expired = append(expired, id)
			delete(s.cols, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		// Best effort; the handle is already gone from the map.
		_ = s.drop(ctx, id)
	}

	return expired
}

func (s *ChromaStore) entry(ctx context.Context, docID string) (*colEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cols[docID]; ok {
		e.lastUsed = time.Now()
		return e, nil
	}

	col, err := s.getOrCreate(ctx, docID)
	if err != nil {
		return nil, err
	}

	e := &colEntry{col: col, lastUsed: time.Now()}
	s.cols[docID] = e
	return e, nil
}

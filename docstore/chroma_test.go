package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollection struct {
	addCalls int
	addErr   error
	queryErr error
}

func (c *fakeCollection) Add(ctx context.Context, opts ...chroma.CollectionAddOption) error {
	c.addCalls++
	return c.addErr
}

func (c *fakeCollection) Query(ctx context.Context, opts ...chroma.CollectionQueryOption) (chroma.QueryResult, error) {
	return nil, c.queryErr
}

func newTestStore(ttl time.Duration) (*ChromaStore, *fakeCollection, *[]string) {
	col := &fakeCollection{}
	dropped := &[]string{}
	store := &ChromaStore{
		cols: make(map[string]*colEntry),
		ttl:  ttl,
		getOrCreate: func(ctx context.Context, name string) (collection, error) {
			return col, nil
		},
		drop: func(ctx context.Context, name string) error {
			*dropped = append(*dropped, name)
			return nil
		},
	}

	return store, col, dropped
}

func Test_Upsert(t *testing.T) {
	store, col, _ := newTestStore(0)

	err := store.Upsert(context.Background(), "doc1",
		[]string{"chunk one", "chunk two"},
		[][]float32{{1, 2}, {3, 4}})

	require.NoError(t, err)
	assert.Equal(t, 1, col.addCalls)
	assert.Contains(t, store.cols, "doc1")
}

func Test_Upsert_CountMismatch(t *testing.T) {
	store, col, _ := newTestStore(0)

	err := store.Upsert(context.Background(), "doc1", []string{"chunk"}, [][]float32{})

	require.Error(t, err)
	assert.Equal(t, 0, col.addCalls)
}

func Test_Upsert_EmptyDocument(t *testing.T) {
	store, col, _ := newTestStore(0)

	require.NoError(t, store.Upsert(context.Background(), "doc1", nil, nil))
	assert.Equal(t, 0, col.addCalls)
	assert.NotContains(t, store.cols, "doc1", "empty ingest must not create a namespace")
}

func Test_Search_UnknownDocument(t *testing.T) {
	store, _, _ := newTestStore(0)

	_, err := store.Search(context.Background(), "missing", []float32{1}, 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Search_QueryFailure(t *testing.T) {
	store, col, _ := newTestStore(0)
	col.queryErr = errors.New("chroma is down")

	require.NoError(t, store.Upsert(context.Background(), "doc1", []string{"c"}, [][]float32{{1}}))
	_, err := store.Search(context.Background(), "doc1", []float32{1}, 5)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func Test_Forget(t *testing.T) {
	store, _, dropped := newTestStore(0)

	require.NoError(t, store.Upsert(context.Background(), "doc1", []string{"c"}, [][]float32{{1}}))
	require.NoError(t, store.Forget(context.Background(), "doc1"))

	assert.Equal(t, []string{"doc1"}, *dropped)
	assert.NotContains(t, store.cols, "doc1")

	// Unknown ids are a no-op.
	require.NoError(t, store.Forget(context.Background(), "doc2"))
	assert.Equal(t, []string{"doc1"}, *dropped)
}

func Test_EvictExpired(t *testing.T) {
	store, _, dropped := newTestStore(time.Minute)

	require.NoError(t, store.Upsert(context.Background(), "stale", []string{"c"}, [][]float32{{1}}))
	require.NoError(t, store.Upsert(context.Background(), "fresh", []string{"c"}, [][]float32{{1}}))
	store.cols["stale"].lastUsed = time.Now().Add(-2 * time.Minute)

	evicted := store.EvictExpired(context.Background())

	assert.Equal(t, []string{"stale"}, evicted)
	assert.Equal(t, []string{"stale"}, *dropped)
	assert.Contains(t, store.cols, "fresh")
}

func Test_EvictExpired_Disabled(t *testing.T) {
	store, _, dropped := newTestStore(0)

	require.NoError(t, store.Upsert(context.Background(), "doc1", []string{"c"}, [][]float32{{1}}))
	store.cols["doc1"].lastUsed = time.Time{}

	assert.Nil(t, store.EvictExpired(context.Background()))
	assert.Empty(t, *dropped)
}

func Test_SearchTouchesLastUsed(t *testing.T) {
	store, col, _ := newTestStore(time.Minute)
	col.queryErr = errors.New("irrelevant")

	require.NoError(t, store.Upsert(context.Background(), "doc1", []string{"c"}, [][]float32{{1}}))
	store.cols["doc1"].lastUsed = time.Now().Add(-2 * time.Minute)

	_, _ = store.Search(context.Background(), "doc1", []float32{1}, 5)

	assert.Empty(t, store.EvictExpired(context.Background()), "recently searched documents must not be evicted")
}

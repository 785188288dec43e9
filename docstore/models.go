package docstore

import "errors"

// ErrNotFound reports a search against a document id that was never
// upserted (or was evicted).
var ErrNotFound = errors.New("document not found")

// SearchResult is one retrieved chunk, most-similar first. Score is the
// index's own distance metric and is passed through untouched.
type SearchResult struct {
	Text  string
	Score float32
}

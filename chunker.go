package main

import "strings"

// WordChunker splits extracted document text into word-bounded segments
// suitable for embedding. Splitting is naive whitespace splitting; no
// sentence or token awareness.
type WordChunker struct {
	maxWords int
}

func NewWordChunker(maxWords int) *WordChunker {
	return &WordChunker{maxWords: maxWords}
}

// Chunk groups consecutive words into segments of at most maxWords words,
// re-joined with single spaces. The final segment may be shorter. Empty
// input yields an empty slice.
func (c *WordChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	res := make([]string, 0, len(words)/c.maxWords+1)
	for pos := 0; pos < len(words); pos += c.maxWords {
		end := min(pos+c.maxWords, len(words))
		res = append(res, strings.Join(words[pos:end], " "))
	}

	return res
}

package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Chunk(t *testing.T) {
	var cases = []struct {
		input    string
		maxWords int
		output   []string
	}{
		{input: "a b c d e", maxWords: 2, output: []string{"a b", "c d", "e"}},
		{input: "a b c d e f", maxWords: 3, output: []string{"a b c", "d e f"}},
		{input: "  a   b\nc\t", maxWords: 10, output: []string{"a b c"}},
		{input: "solo", maxWords: 5, output: []string{"solo"}},
		{input: "", maxWords: 5, output: []string{}},
		{input: "   \n\t  ", maxWords: 5, output: []string{}},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			out := NewWordChunker(c.maxWords).Chunk(c.input)
			assert.Equal(t, c.output, out)
		})
	}
}

func Test_Chunk_BoundsAndOrder(t *testing.T) {
	words := make([]string, 1200)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := strings.Join(words, " ")

	chunks := NewWordChunker(500).Chunk(text)
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 500)
	assert.Len(t, strings.Fields(chunks[1]), 500)
	assert.Len(t, strings.Fields(chunks[2]), 200)

	// Re-joining reproduces the whitespace-normalized input.
	assert.Equal(t, text, strings.Join(chunks, " "))
}

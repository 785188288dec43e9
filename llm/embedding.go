package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// ErrEmbedding marks any failure of the embedding gateway, regardless of
// whether transport, status or response shape caused it.
var ErrEmbedding = errors.New("embedding failed")

// EndpointConfig describes one Azure OpenAI deployment.
type EndpointConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// EmbeddingClient turns batches of texts into fixed-dimension vectors via a
// remote Azure OpenAI embeddings deployment.
type EmbeddingClient struct {
	cfg    EndpointConfig
	retry  RetryPolicy
	client *http.Client
}

func NewEmbeddingClient(cfg EndpointConfig, retry RetryPolicy) *EmbeddingClient {
	return &EmbeddingClient{
		cfg:    cfg,
		retry:  retry,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per input text, in input order, produced by a
// single batched remote call (retried under the shared policy). Identical
// inputs are always re-embedded; there is no cache.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vectors [][]float32
	err := c.retry.do(ctx, func(ctx context.Context) error {
		v, err := c.embedOnce(ctx, texts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	return vectors, nil
}

func (c *EmbeddingClient) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Deployment, c.cfg.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, body: truncate(raw)}
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("remote error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(texts))
	}

	// The service is free to return items out of order; the index field is
	// authoritative.
	sort.Slice(parsed.Data, func(i, j int) bool {
		return parsed.Data[i].Index < parsed.Data[j].Index
	})

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", d.Index)
		}
		if i > 0 && len(d.Embedding) != len(vectors[0]) {
			return nil, fmt.Errorf("inconsistent embedding dimension at index %d", d.Index)
		}
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max])
	}
	return string(b)
}

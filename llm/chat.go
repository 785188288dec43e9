package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrGeneration marks any failure of the answer gateway.
var ErrGeneration = errors.New("generation failed")

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// ChatClient produces a natural-language answer for a question plus a small
// set of context passages, via a remote Azure OpenAI chat deployment.
type ChatClient struct {
	cfg    EndpointConfig
	retry  RetryPolicy
	client *http.Client
}

func NewChatClient(cfg EndpointConfig, retry RetryPolicy) *ChatClient {
	return &ChatClient{
		cfg:    cfg,
		retry:  retry,
		client: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Answer composes a single prompt from the question and passages and issues
// one generative-model call, retried under the shared policy.
func (c *ChatClient) Answer(ctx context.Context, question string, passages []string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nContext:\n%s", question, strings.Join(passages, "\n\n"))

	var answer string
	err := c.retry.do(ctx, func(ctx context.Context) error {
		a, err := c.answerOnce(ctx, prompt)
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return answer, nil
}

func (c *ChatClient) answerOnce(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Deployment, c.cfg.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.StatusCode, body: truncate(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed response body: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("remote error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("response contains no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

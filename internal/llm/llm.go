// Package llm wraps the chat-completion provider behind a single Complete
// call. Every caller is expected to carry a deterministic fallback: on any
// provider or parse failure the caller gets an error and falls back to rules.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no client is configured. Extractors treat
// it the same as any other failure: use the rules path.
var ErrUnavailable = errors.New("llm: client not configured")

// minCallSpacing is the process-local rate limit between provider calls.
const minCallSpacing = 500 * time.Millisecond

type Client interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger

	mu       sync.Mutex
	lastCall time.Time
}

func NewOpenAIClient(apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *OpenAIClient) waitForSlot() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elapsed := time.Since(c.lastCall); elapsed < minCallSpacing {
		time.Sleep(minCallSpacing - elapsed)
	}
	c.lastCall = time.Now()
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	c.waitForSlot()

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userText,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to get completion", zap.Error(err))
		return "", fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm completion: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteJSON runs Complete and unmarshals the response into out. Models
// sometimes wrap JSON in markdown fences; those are stripped before parsing.
func CompleteJSON(ctx context.Context, c Client, systemPrompt, userText string, out any) error {
	if c == nil {
		return ErrUnavailable
	}

	response, err := c.Complete(ctx, systemPrompt, userText)
	if err != nil {
		return err
	}

	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("llm response is not valid JSON: %w", err)
	}
	return nil
}

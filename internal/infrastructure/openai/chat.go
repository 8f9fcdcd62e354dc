package openai

import (
	"context"
	"fmt"

	"github.com/smartswap/backend/internal/domain"
)

const (
	defaultChatModel   = "gpt-4"
	defaultTemperature = 0.7
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// ChatClient is a domain.LLMProvider backed by the chat completions endpoint
type ChatClient struct {
	*client
}

// NewChatClient creates a chat completions client
func NewChatClient(cfg Config) *ChatClient {
	return &ChatClient{client: newClient(cfg, defaultChatModel, "openai_chat")}
}

// Available reports whether an API key is configured
func (c *ChatClient) Available() bool {
	return c.available()
}

// Complete sends prompt as a single user message and returns the reply text
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.available() {
		return "", domain.ErrLLMNotConfigured
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: defaultTemperature,
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrProviderFailure)
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("finish_reason", resp.Choices[0].FinishReason).
		Int("chars", len(resp.Choices[0].Message.Content)).
		Msg("completion received")

	return resp.Choices[0].Message.Content, nil
}

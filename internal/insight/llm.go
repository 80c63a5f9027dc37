package insight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loomworks/loom/pkg/httpx"
)

// Completer turns a rendered prompt into raw model output. A nil Completer
// means fallback-only extraction.
type Completer interface {
	Complete(ctx context.Context, skill Skill, prompt string) (string, error)
	Provider() string
}

const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-haiku-20240307"
	completionMaxTokens   = 1024
)

// CompleterFromEnv picks a completer from INSIGHT_PROVIDER and the matching
// API key. No usable key means nil.
func CompleterFromEnv() Completer {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("INSIGHT_PROVIDER")))
	switch provider {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return NewAnthropicCompleter(key)
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return NewOpenAICompleter(key)
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return NewOpenAICompleter(key)
		}
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return NewAnthropicCompleter(key)
		}
	}
	return nil
}

func modelFor(skill Skill, fallback string) string {
	if env := strings.TrimSpace(os.Getenv("INSIGHT_MODEL")); env != "" {
		return env
	}
	if skill.ModelName != "" {
		return skill.ModelName
	}
	return fallback
}

// OpenAICompleter calls the chat completions API.
type OpenAICompleter struct {
	client *httpx.Client
}

func NewOpenAICompleter(apiKey string) *OpenAICompleter {
	return &OpenAICompleter{client: httpx.NewClient(&httpx.ClientConfig{
		BaseURL: "https://api.openai.com",
		Timeout: 30 * time.Second,
		Headers: map[string]string{"Authorization": "Bearer " + apiKey},
	})}
}

func (c *OpenAICompleter) Provider() string { return "openai" }

func (c *OpenAICompleter) Complete(ctx context.Context, skill Skill, prompt string) (string, error) {
	body := map[string]any{
		"model":       modelFor(skill, defaultOpenAIModel),
		"temperature": skill.ModelTemp,
		"max_tokens":  completionMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	resp, err := c.client.Post(ctx, "/v1/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.JSON(&parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// AnthropicCompleter calls the messages API.
type AnthropicCompleter struct {
	client *httpx.Client
}

func NewAnthropicCompleter(apiKey string) *AnthropicCompleter {
	return &AnthropicCompleter{client: httpx.NewClient(&httpx.ClientConfig{
		BaseURL: "https://api.anthropic.com",
		Timeout: 30 * time.Second,
		Headers: map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": "2023-06-01",
		},
	})}
}

func (c *AnthropicCompleter) Provider() string { return "anthropic" }

func (c *AnthropicCompleter) Complete(ctx context.Context, skill Skill, prompt string) (string, error) {
	body := map[string]any{
		"model":       modelFor(skill, defaultAnthropicModel),
		"temperature": skill.ModelTemp,
		"max_tokens":  completionMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	resp, err := c.client.Post(ctx, "/v1/messages", body)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}
	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := resp.JSON(&parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic returned no content")
	}
	return parsed.Content[0].Text, nil
}

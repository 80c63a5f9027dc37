package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomworks/loom/pkg/httpx"
)

// OpenAIProvider calls the OpenAI embeddings API through the shared
// rate-limited HTTP client.
type OpenAIProvider struct {
	client *httpx.Client
	model  string
	dim    int
}

// NewOpenAIProvider builds a provider against api.openai.com.
func NewOpenAIProvider(apiKey, model string, dim int) *OpenAIProvider {
	client := httpx.NewClient(&httpx.ClientConfig{
		BaseURL: "https://api.openai.com",
		Headers: map[string]string{"Authorization": "Bearer " + apiKey},
	})
	return &OpenAIProvider{client: client, model: model, dim: dim}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) EmbedText(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if model == "" {
		model = p.model
	}
	resp, err := p.client.Post(ctx, "/v1/embeddings", embeddingsRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}

	var decoded embeddingsResponse
	if err := resp.JSON(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}
	out := make([][]float32, len(texts))
	for i, d := range decoded.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func (p *OpenAIProvider) ModelName() string { return p.model }

// Package embed provides text embedding providers for the indexer.
package embed

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultDim is the embedding dimensionality used when EMBED_DIM is unset.
const DefaultDim = 1536

// Provider defines the minimal embed API.
type Provider interface {
	EmbedText(ctx context.Context, model string, texts []string) ([][]float32, error)
	ModelName() string
}

// ZeroProvider returns zero vectors. Used as the fallback when no real
// provider is configured; downstream consumers treat zero vectors as
// "embedded but unranked".
type ZeroProvider struct {
	Dim int
}

func (p *ZeroProvider) EmbedText(_ context.Context, _ string, texts []string) ([][]float32, error) {
	if p.Dim <= 0 {
		return nil, errors.New("invalid embedding dimension")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, p.Dim)
	}
	return out, nil
}

func (p *ZeroProvider) ModelName() string { return "zero-vector" }

// LocalProvider produces deterministic hashed embeddings without external
// services. Suitable for dev and tests.
type LocalProvider struct {
	Dim int
}

func (p *LocalProvider) EmbedText(_ context.Context, _ string, texts []string) ([][]float32, error) {
	if p.Dim <= 0 {
		return nil, errors.New("invalid embedding dimension")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.embedOne(t)
	}
	return out, nil
}

func (p *LocalProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.Dim)
	words := strings.Fields(text)
	if len(words) == 0 {
		return vec
	}
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		idx := int(h.Sum32()) % p.Dim
		if idx < 0 {
			idx = -idx
		}
		vec[idx] += 1.0
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		n := float32(1.0) / norm
		for i := range vec {
			vec[i] = vec[i] * n
		}
	}
	return vec
}

func (p *LocalProvider) ModelName() string { return "local-fnv-hash" }

var (
	defaultOnce sync.Once
	defaultProv Provider
	defaultErr  error
)

// Default returns the process-wide embedding provider, selected by env:
// EMBEDDING_PROVIDER ∈ {openai, local}, anything else falls back to zero
// vectors. Initialization is sticky.
func Default() (Provider, error) {
	defaultOnce.Do(func() {
		defaultProv = FromEnv()
	})
	return defaultProv, defaultErr
}

// DimFromEnv returns EMBED_DIM or the default dimensionality.
func DimFromEnv() int {
	dim := DefaultDim
	if v := os.Getenv("EMBED_DIM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			dim = parsed
		}
	}
	return dim
}

// FromEnv builds a provider from environment configuration.
func FromEnv() Provider {
	dim := DimFromEnv()
	switch strings.ToLower(os.Getenv("EMBEDDING_PROVIDER")) {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		model := os.Getenv("EMBEDDING_MODEL")
		if model == "" {
			model = "text-embedding-3-small"
		}
		if apiKey != "" {
			return NewOpenAIProvider(apiKey, model, dim)
		}
	case "local":
		return &LocalProvider{Dim: dim}
	}
	return &ZeroProvider{Dim: dim}
}

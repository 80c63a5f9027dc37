package embed

import (
	"context"
	"testing"
)

func TestZeroProviderDimensions(t *testing.T) {
	p := &ZeroProvider{Dim: 8}
	vecs, err := p.EmbedText(context.Background(), "", []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 8 {
		t.Fatalf("shape = %dx%d", len(vecs), len(vecs[0]))
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatal("zero provider must return zero vectors")
		}
	}
}

func TestLocalProviderDeterministic(t *testing.T) {
	p := &LocalProvider{Dim: 64}
	a, err := p.EmbedText(context.Background(), "", []string{"stale work item"})
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	b, _ := p.EmbedText(context.Background(), "", []string{"stale work item"})
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatal("local provider must be deterministic")
		}
	}

	c, _ := p.EmbedText(context.Background(), "", []string{"completely different text"})
	same := true
	for i := range a[0] {
		if a[0][i] != c[0][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different texts should not collide on every component")
	}
}

func TestLocalProviderEmptyText(t *testing.T) {
	p := &LocalProvider{Dim: 16}
	vecs, err := p.EmbedText(context.Background(), "", []string{""})
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}

func TestFromEnvFallsBackToZero(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EMBED_DIM", "32")
	p := FromEnv()
	if _, ok := p.(*ZeroProvider); !ok {
		t.Fatalf("expected ZeroProvider fallback, got %T", p)
	}
	vecs, _ := p.EmbedText(context.Background(), "", []string{"x"})
	if len(vecs[0]) != 32 {
		t.Fatalf("dim = %d, want 32", len(vecs[0]))
	}
}

func TestFromEnvLocal(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "local")
	p := FromEnv()
	if _, ok := p.(*LocalProvider); !ok {
		t.Fatalf("expected LocalProvider, got %T", p)
	}
	if p.ModelName() != "local-fnv-hash" {
		t.Fatalf("model = %q", p.ModelName())
	}
}

package kvstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v, err := s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: "k", Value: []byte(`{"a":1}`)}, 0)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	rec, err := s.Get(ctx, "t", "p", "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil || string(rec.Value) != `{"a":1}` || rec.Version != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if missing, err := s.Get(ctx, "t", "p", "nope"); err != nil || missing != nil {
		t.Fatalf("missing key should be (nil, nil), got %+v, %v", missing, err)
	}
}

func TestMemoryStoreCAS(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: "k", Value: []byte("1")}, 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Correct expected version increments.
	v, err := s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: "k", Value: []byte("2")}, 1)
	if err != nil {
		t.Fatalf("CAS Put: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}

	// Stale version loses.
	_, err = s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: "k", Value: []byte("3")}, 1)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	// Expected version on a missing key fails.
	_, err = s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: "new", Value: []byte("x")}, 3)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for missing key, got %v", err)
	}
}

func TestMemoryStoreListKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"indexer:a:x", "indexer:a:y", "cluster:b"} {
		if _, err := s.Put(ctx, Record{TenantID: "t", ProjectID: "p", Key: k, Value: []byte("{}")}, 0); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	keys, err := s.ListKeys(ctx, "t", "p", "indexer:", 10)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "indexer:a:x" || keys[1] != "indexer:a:y" {
		t.Fatalf("keys = %v", keys)
	}
}

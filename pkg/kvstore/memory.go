package kvstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development. It
// honors the same CAS semantics as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]*Record
}

// NewMemoryStore creates an empty in-memory KV store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*Record)}
}

func scopeKey(tenantID, projectID, key string) string {
	return tenantID + "\x00" + projectID + "\x00" + key
}

func (s *MemoryStore) Put(ctx context.Context, rec Record, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := scopeKey(rec.TenantID, rec.ProjectID, rec.Key)
	existing, ok := s.recs[k]
	if !ok {
		if expectedVersion > 0 {
			return 0, fmt.Errorf("%w: expected %d but key missing", ErrVersionMismatch, expectedVersion)
		}
		stored := rec
		stored.Value = append([]byte(nil), rec.Value...)
		stored.Version = 1
		s.recs[k] = &stored
		return 1, nil
	}
	if expectedVersion > 0 && existing.Version != expectedVersion {
		return 0, fmt.Errorf("%w: expected %d got %d", ErrVersionMismatch, expectedVersion, existing.Version)
	}
	existing.Value = append([]byte(nil), rec.Value...)
	existing.Version++
	return existing.Version, nil
}

func (s *MemoryStore) Get(ctx context.Context, tenantID, projectID, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[scopeKey(tenantID, projectID, key)]
	if !ok {
		return nil, nil
	}
	out := *rec
	out.Value = append([]byte(nil), rec.Value...)
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, tenantID, projectID, key string, expectedVersion int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := scopeKey(tenantID, projectID, key)
	rec, ok := s.recs[k]
	if !ok {
		return false, nil
	}
	if expectedVersion > 0 && rec.Version != expectedVersion {
		return false, nil
	}
	delete(s.recs, k)
	return true, nil
}

func (s *MemoryStore) ListKeys(ctx context.Context, tenantID, projectID, prefix string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := tenantID + "\x00" + projectID + "\x00"
	var keys []string
	for k := range s.recs {
		if !strings.HasPrefix(k, scope) {
			continue
		}
		key := strings.TrimPrefix(k, scope)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *MemoryStore) Close() error { return nil }

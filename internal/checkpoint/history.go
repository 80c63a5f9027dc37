package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/loomworks/loom/pkg/logstore"
)

const historyTable = "checkpoints"

// History archives pre-update checkpoint snapshots to the log store.
// A nil *History is valid and degrades to no-ops, so callers never have to
// guard against a missing log store.
type History struct {
	store logstore.Store
}

// NewHistory creates a checkpoint history over the given log store.
func NewHistory(store logstore.Store) *History {
	if store == nil {
		return nil
	}
	return &History{store: store}
}

// NewHistoryFromEnv wires history against the env-configured log store.
// Returns nil when the log store is unavailable.
func NewHistoryFromEnv() *History {
	store, err := logstore.NewObjectStoreFromEnv()
	if err != nil {
		return nil
	}
	return NewHistory(store)
}

// Archive pushes the current checkpoint snapshot before it is overwritten.
// Returns the history reference or empty string when history is disabled.
func (h *History) Archive(ctx context.Context, key string, cp map[string]any, version int64) (string, error) {
	if h == nil || h.store == nil {
		return "", nil
	}

	_ = h.store.CreateTable(ctx, historyTable)

	snapshot, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint: %w", err)
	}

	runID := fmt.Sprintf("%s-v%d", sanitizeKey(key), version)
	ref, err := h.store.WriteSnapshot(ctx, historyTable, runID, snapshot)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return ref, nil
}

// HistoryEntry points at one archived checkpoint snapshot.
type HistoryEntry struct {
	Path    string
	Version int64
}

// List returns archived snapshots for key, newest first.
func (h *History) List(ctx context.Context, key string, limit int) ([]HistoryEntry, error) {
	if h == nil || h.store == nil {
		return nil, nil
	}

	prefix := fmt.Sprintf("%s/%s", historyTable, sanitizeKey(key))
	paths, err := h.store.ListPaths(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	entries := make([]HistoryEntry, len(paths))
	for i, p := range paths {
		entries[i] = HistoryEntry{Path: p, Version: extractVersion(p)}
	}
	return entries, nil
}

// RetentionPolicy defines how long archived checkpoints are kept.
type RetentionPolicy struct {
	MaxDays int
}

// DefaultRetentionPolicy keeps snapshots for 30 days.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{MaxDays: 30}
}

// Prune removes snapshots older than the retention policy.
func (h *History) Prune(ctx context.Context, policy RetentionPolicy) error {
	if h == nil || h.store == nil {
		return nil
	}
	return h.store.Prune(ctx, historyTable, policy.MaxDays)
}

// ArchiveAndPrune archives the snapshot and applies retention in the
// background.
func (h *History) ArchiveAndPrune(ctx context.Context, key string, cp map[string]any, version int64, policy RetentionPolicy) (string, error) {
	ref, err := h.Archive(ctx, key, cp, version)
	if err != nil {
		return "", err
	}
	go func() {
		_ = h.Prune(context.Background(), policy)
	}()
	return ref, nil
}

// sanitizeKey makes a checkpoint key safe for object paths.
func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "::", "/")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}

func extractVersion(path string) int64 {
	base := strings.TrimSuffix(path, ".snapshot.json")
	parts := strings.Split(base, "-v")
	if len(parts) < 2 {
		return 0
	}
	var v int64
	fmt.Sscanf(parts[len(parts)-1], "%d", &v)
	return v
}

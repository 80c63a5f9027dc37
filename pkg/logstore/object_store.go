package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/loomworks/loom/pkg/objstore"
)

// ObjectStore implements Store over an object storage backend.
//
// Layout:
//
//	<prefix>/<table>/<runId>/<ts>.events.jsonl
//	<prefix>/<table>/<runId>.snapshot.json
type ObjectStore struct {
	store      objstore.Store
	bucket     string
	basePrefix string
}

// NewObjectStore builds a log store over the given backend.
func NewObjectStore(store objstore.Store, bucket, basePrefix string) *ObjectStore {
	if bucket == "" {
		bucket = "logstore"
	}
	if basePrefix == "" {
		basePrefix = "logs"
	}
	return &ObjectStore{store: store, bucket: bucket, basePrefix: basePrefix}
}

// NewObjectStoreFromEnv builds a log store using MINIO_* settings, falling
// back to a local filesystem store for dev/tests.
func NewObjectStoreFromEnv() (*ObjectStore, error) {
	bucket := getenv("LOGSTORE_BUCKET", "logstore")
	prefix := getenv("LOGSTORE_PREFIX", "logs")

	if cfg := objstore.S3ConfigFromEnv(); cfg != nil {
		client, err := objstore.NewS3Store(cfg)
		if err != nil {
			return nil, err
		}
		return NewObjectStore(client, bucket, prefix), nil
	}
	root := filepath.Join(os.TempDir(), "loom-logstore")
	return NewObjectStore(objstore.NewLocalStore(root), bucket, prefix), nil
}

func (s *ObjectStore) CreateTable(ctx context.Context, table string) error {
	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		return err
	}
	// Placeholder object so the prefix exists for listings.
	return s.store.PutObject(ctx, s.bucket, s.path(table, "._init"), []byte("init"))
}

func (s *ObjectStore) Append(ctx context.Context, table, runID string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return "", fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	key := s.path(table, path.Join(runID, fmt.Sprintf("%d.events.jsonl", time.Now().UnixNano())))
	if err := s.store.PutObject(ctx, s.bucket, key, buf.Bytes()); err != nil {
		return "", err
	}
	return fmt.Sprintf("minio://%s/%s", s.bucket, key), nil
}

func (s *ObjectStore) WriteSnapshot(ctx context.Context, table, runID string, snapshot []byte) (string, error) {
	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		return "", err
	}
	key := s.path(table, runID+".snapshot.json")
	if err := s.store.PutObject(ctx, s.bucket, key, snapshot); err != nil {
		return "", err
	}
	return fmt.Sprintf("minio://%s/%s", s.bucket, key), nil
}

// Prune deletes run artifacts older than retentionDays (if >0). Age is read
// from the nanosecond timestamp embedded in event file names; snapshots fall
// back to a trailing timestamp in the run ID when present.
func (s *ObjectStore) Prune(ctx context.Context, table string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	prefix := s.path(table, "")
	keys, err := s.store.ListPrefix(ctx, s.bucket, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		ns, ok := artifactTimestamp(k)
		if !ok {
			continue
		}
		if time.Unix(0, ns).Before(cutoff) {
			_ = s.store.DeleteObject(ctx, s.bucket, k)
		}
	}
	return nil
}

// ListPaths returns object keys under the given prefix (relative to basePrefix).
func (s *ObjectStore) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	p := strings.Trim(path.Join(s.basePrefix, prefix), "/")
	return s.store.ListPrefix(ctx, s.bucket, p)
}

func (s *ObjectStore) path(table, file string) string {
	return strings.Trim(path.Join(s.basePrefix, table, file), "/")
}

func artifactTimestamp(key string) (int64, bool) {
	base := path.Base(key)
	switch {
	case strings.HasSuffix(base, ".events.jsonl"):
		tsStr := strings.TrimSuffix(base, ".events.jsonl")
		if ns, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			return ns, true
		}
	case strings.HasSuffix(base, ".snapshot.json"):
		runID := strings.TrimSuffix(base, ".snapshot.json")
		fields := strings.Split(runID, "-")
		if len(fields) >= 2 {
			if ns, err := strconv.ParseInt(fields[len(fields)-1], 10, 64); err == nil {
				return ns, true
			}
		}
	}
	return 0, false
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

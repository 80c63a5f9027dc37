package staging

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/loomworks/loom/pkg/objstore"
)

const finalSentinel = "_FINAL"

// ObjectProvider stages batches as ndjson objects under
// <bucket>/<basePrefix>/<stageId>/<sliceId>/<zero-padded-seq>.ndjson.
// Finalization writes a _FINAL sentinel under the stage prefix.
type ObjectProvider struct {
	id         string
	store      objstore.Store
	bucket     string
	basePrefix string

	mu sync.Mutex
}

// ObjectConfig configures an object-store staging provider.
type ObjectConfig struct {
	// ProviderID overrides the registered ID (defaults to ProviderObjectStore;
	// use ProviderMinIO for an S3/MinIO-backed registration).
	ProviderID string
	Store      objstore.Store
	Bucket     string
	BasePrefix string
}

// NewObjectProvider creates an object-backed staging provider.
func NewObjectProvider(cfg ObjectConfig) (*ObjectProvider, error) {
	if cfg.Store == nil {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: false, Err: fmt.Errorf("object store is required")}
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "staging"
	}
	if cfg.BasePrefix == "" {
		cfg.BasePrefix = "stages"
	}
	id := cfg.ProviderID
	if id == "" {
		id = ProviderObjectStore
	}
	return &ObjectProvider{
		id:         id,
		store:      cfg.Store,
		bucket:     cfg.Bucket,
		basePrefix: cfg.BasePrefix,
	}, nil
}

func (p *ObjectProvider) ID() string { return p.id }

func (p *ObjectProvider) stagePrefix(stageID string) string {
	return path.Join(p.basePrefix, stageID)
}

func (p *ObjectProvider) PutBatch(ctx context.Context, req *PutBatchRequest) (*PutBatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageID := resolveStageID(req.StageRef, req.StageID)
	if stageID == "" {
		stageID = NewStageID()
	}
	sliceID := req.SliceID
	if sliceID == "" {
		sliceID = "slice"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	final, err := p.isFinalized(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if final {
		return nil, &Error{Code: CodeStageFinalized, Retryable: false, Err: fmt.Errorf("stage %s is finalized", stageID)}
	}

	if err := p.store.EnsureBucket(ctx, p.bucket); err != nil {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
	}

	batchSeq := req.BatchSeq
	if batchSeq <= 0 {
		if existing, listErr := p.listBatchesLocked(ctx, stageID, sliceID); listErr == nil {
			batchSeq = len(existing)
		}
	}
	batchRef := path.Join(sliceID, fmt.Sprintf("%06d.ndjson", batchSeq))
	key := path.Join(p.stagePrefix(stageID), batchRef)

	data, err := encodeEnvelopes(req.Records)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	if err := p.store.PutObject(ctx, p.bucket, key, data); err != nil {
		return nil, &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
	}

	return &PutBatchResult{
		StageRef: MakeStageRef(p.id, stageID),
		BatchRef: batchRef,
		Stats: BatchStats{
			Records: len(req.Records),
			Bytes:   int64(len(data)),
		},
	}, nil
}

func (p *ObjectProvider) listBatchesLocked(ctx context.Context, stageID, sliceID string) ([]string, error) {
	prefix := p.stagePrefix(stageID)
	if sliceID != "" {
		prefix = path.Join(prefix, sliceID)
	}
	keys, err := p.store.ListPrefix(ctx, p.bucket, prefix)
	if err != nil {
		if objstore.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	base := p.stagePrefix(stageID) + "/"
	var refs []string
	for _, k := range keys {
		rel := strings.TrimPrefix(k, base)
		if rel == finalSentinel || !strings.HasSuffix(rel, ".ndjson") {
			continue
		}
		refs = append(refs, rel)
	}
	sort.Strings(refs)
	return refs, nil
}

func (p *ObjectProvider) ListBatches(ctx context.Context, stageRef string, sliceID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listBatchesLocked(ctx, stageID, sliceID)
}

func (p *ObjectProvider) GetBatch(ctx context.Context, stageRef string, batchRef string) ([]RecordEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, stageID := ParseStageRef(stageRef)

	key := path.Join(p.stagePrefix(stageID), batchRef)
	data, err := p.store.GetObject(ctx, p.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", batchRef, err)
	}
	return decodeEnvelopes(data)
}

func (p *ObjectProvider) FinalizeStage(ctx context.Context, stageRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, stageID := ParseStageRef(stageRef)

	p.mu.Lock()
	defer p.mu.Unlock()

	key := path.Join(p.stagePrefix(stageID), finalSentinel)
	if err := p.store.PutObject(ctx, p.bucket, key, []byte("final")); err != nil {
		return &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
	}
	return nil
}

func (p *ObjectProvider) isFinalized(ctx context.Context, stageID string) (bool, error) {
	key := path.Join(p.stagePrefix(stageID), finalSentinel)
	_, err := p.store.GetObject(ctx, p.bucket, key)
	if err != nil {
		if objstore.IsNotFound(err) {
			return false, nil
		}
		// An unreadable sentinel must not silently reopen the stage.
		return false, &Error{Code: CodeStagingUnavailable, Retryable: true, Err: err}
	}
	return true, nil
}

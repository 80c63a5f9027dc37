// Package activities implements the Temporal activities that drive the
// pipeline: slice planning, slice ingestion, indexing, clustering, signal
// extraction, and insight extraction. Components are wired from environment
// configuration once and shared across activity invocations.
package activities

import (
	"fmt"
	"os"
	"strings"

	"github.com/loomworks/loom/internal/cluster"
	"github.com/loomworks/loom/internal/embed"
	"github.com/loomworks/loom/internal/endpoint"
	"github.com/loomworks/loom/internal/graph"
	"github.com/loomworks/loom/internal/checkpoint"
	"github.com/loomworks/loom/internal/indexer"
	"github.com/loomworks/loom/internal/ingest"
	"github.com/loomworks/loom/internal/insight"
	"github.com/loomworks/loom/internal/signals"
	"github.com/loomworks/loom/pkg/kvstore"
	"github.com/loomworks/loom/pkg/logstore"
	"github.com/loomworks/loom/pkg/objstore"
	"github.com/loomworks/loom/pkg/staging"
	"github.com/loomworks/loom/pkg/vectorstore"
)

// Activities holds the wired pipeline components.
type Activities struct {
	endpoints *endpoint.Registry
	staging   *staging.Registry
	planner   *ingest.Planner
	runner    *ingest.Runner
	indexer   *indexer.Indexer
	clusters  *cluster.Builder
	signals   *signals.Extractor
	insights  *insight.Extractor
	logs      logstore.Store
	registry  *registryClient
}

// NewActivities wires the pipeline from environment configuration. Optional
// backends (log store, registry DB, LLM provider) degrade to nil.
func NewActivities() (*Activities, error) {
	endpoints := endpoint.DefaultRegistry()
	stagingReg, err := newStagingRegistry()
	if err != nil {
		return nil, fmt.Errorf("wire staging: %w", err)
	}

	kv, err := newKVStore()
	if err != nil {
		return nil, fmt.Errorf("wire kv store: %w", err)
	}
	checkpoints := checkpoint.NewEngine(kv)

	vectors, err := newVectorStore()
	if err != nil {
		return nil, fmt.Errorf("wire vector store: %w", err)
	}

	writer, err := newGraphWriter()
	if err != nil {
		return nil, fmt.Errorf("wire graph: %w", err)
	}

	signalStore, err := newSignalStore()
	if err != nil {
		return nil, fmt.Errorf("wire signal store: %w", err)
	}

	logs, err := logstore.NewObjectStoreFromEnv()
	if err != nil {
		logs = nil
	}
	var logStore logstore.Store
	if logs != nil {
		logStore = logs
	}

	registry, err := newRegistryClient()
	if err != nil {
		return nil, fmt.Errorf("wire registry: %w", err)
	}
	var recorder *registryClient
	if registry != nil {
		recorder = registry
	}

	embedder := embed.FromEnv()

	a := &Activities{
		endpoints: endpoints,
		staging:   stagingReg,
		planner:   ingest.NewPlanner(endpoints),
		runner:    ingest.NewRunner(endpoints, stagingReg),
		logs:      logStore,
		registry:  registry,
	}
	a.indexer = indexer.New(endpoints, stagingReg, vectors, checkpoints, embedder, logStore, recorderOrNil(recorder))
	a.clusters = cluster.NewBuilder(vectors, kv, checkpoints, writer, logStore, clusterRecorderOrNil(recorder))
	a.signals = signals.NewExtractor(endpoints, stagingReg, signalStore, writer, logStore)
	a.insights = insight.NewExtractor(endpoints, stagingReg, insight.NewRegistry(""), checkpoints, writer, logStore, insight.CompleterFromEnv())
	return a, nil
}

// Close releases pooled connections.
func (a *Activities) Close() {
	if a.registry != nil {
		_ = a.registry.Close()
	}
}

// recorderOrNil avoids a typed-nil interface when the registry DB is not
// configured.
func recorderOrNil(c *registryClient) indexer.StatusRecorder {
	if c == nil {
		return nil
	}
	return c
}

func clusterRecorderOrNil(c *registryClient) cluster.StatusRecorder {
	if c == nil {
		return nil
	}
	return c
}

// newStagingRegistry registers a memory provider plus an object-store provider
// when MINIO_* settings are present.
func newStagingRegistry() (*staging.Registry, error) {
	providers := []staging.Provider{staging.NewMemoryProvider(0)}
	if cfg := objstore.S3ConfigFromEnv(); cfg != nil {
		store, err := objstore.NewS3Store(cfg)
		if err != nil {
			return nil, err
		}
		obj, err := staging.NewObjectProvider(staging.ObjectConfig{
			ProviderID: staging.ProviderMinIO,
			Store:      store,
			Bucket:     getenv("STAGING_BUCKET", "staging"),
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, obj)
	}
	return staging.NewRegistry(providers...), nil
}

// newKVStore prefers the KV gRPC service, then a direct Postgres connection,
// then in-process memory for dev.
func newKVStore() (kvstore.Store, error) {
	if addr := strings.TrimSpace(os.Getenv("KV_GRPC_ADDR")); addr != "" {
		return dialKVStore(addr)
	}
	if hasRegistryDSN() {
		return kvstore.NewPostgresStore()
	}
	return kvstore.NewMemoryStore(), nil
}

func newVectorStore() (vectorstore.Store, error) {
	if addr := strings.TrimSpace(os.Getenv("VECTOR_GRPC_ADDR")); addr != "" {
		return dialVectorStore(addr)
	}
	if dsn := registryDSN(); dsn != "" {
		return vectorstore.NewPgVectorStore(dsn, embed.DimFromEnv())
	}
	return dialVectorStore(defaultStoreAddr)
}

func newGraphWriter() (graph.Writer, error) {
	addr := strings.TrimSpace(os.Getenv("KG_GRPC_ADDR"))
	if addr == "memory" {
		return graph.NewMemory(), nil
	}
	if addr == "" {
		addr = defaultStoreAddr
	}
	return dialGraphWriter(addr)
}

func newSignalStore() (signals.Store, error) {
	addr := strings.TrimSpace(os.Getenv("SIGNAL_GRPC_ADDR"))
	if addr == "memory" {
		return signals.NewMemory(), nil
	}
	if addr == "" {
		addr = defaultStoreAddr
	}
	return dialSignalStore(addr)
}

func registryDSN() string {
	if dsn := os.Getenv("METADATA_DATABASE_URL"); dsn != "" {
		return dsn
	}
	return os.Getenv("DATABASE_URL")
}

func hasRegistryDSN() bool { return registryDSN() != "" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

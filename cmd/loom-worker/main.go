package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/loomworks/loom/internal/activities"
)

const (
	defaultTaskQueue    = "loom-go"
	defaultTemporalAddr = "127.0.0.1:7233"
	defaultNamespace    = "default"
)

func main() {
	temporalAddr := getEnv("TEMPORAL_ADDRESS", defaultTemporalAddr)
	namespace := getEnv("TEMPORAL_NAMESPACE", defaultNamespace)
	taskQueue := getEnv("LOOM_TASK_QUEUE", defaultTaskQueue)

	log.Printf("Starting loom worker: address=%s namespace=%s queue=%s",
		temporalAddr, namespace, taskQueue)

	c, err := client.Dial(client.Options{
		HostPort:  temporalAddr,
		Namespace: namespace,
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, taskQueue, worker.Options{})

	acts, err := activities.NewActivities()
	if err != nil {
		log.Fatalf("Failed to wire activities: %v", err)
	}
	defer acts.Close()

	w.RegisterActivity(acts.PlanSlices)
	w.RegisterActivity(acts.RunIngestionSlice)
	w.RegisterActivity(acts.PreviewDataset)
	w.RegisterActivity(acts.IndexArtifact)
	w.RegisterActivity(acts.BuildClusters)
	w.RegisterActivity(acts.ExtractSignals)
	w.RegisterActivity(acts.ExtractInsights)
	w.RegisterActivity(acts.GetRunSummary)
	w.RegisterActivity(acts.DiffRunSummaries)
	w.RegisterActivity(acts.GCLogStore)

	log.Printf("Registered loom activities: PlanSlices, RunIngestionSlice, PreviewDataset, IndexArtifact, BuildClusters, ExtractSignals, ExtractInsights, GetRunSummary, DiffRunSummaries, GCLogStore")

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

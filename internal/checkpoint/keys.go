package checkpoint

import "fmt"

// Checkpoint key shapes. The KV namespace is shared by the pipeline stages;
// each stage owns one prefix.

// IndexerKey keys indexing progress per profile + dataset.
func IndexerKey(profileID, datasetSlug string) string {
	return fmt.Sprintf("indexer:%s:%s", profileID, datasetSlug)
}

// ClusterKey keys cluster-builder progress per dataset.
func ClusterKey(datasetSlug string) string {
	return fmt.Sprintf("cluster:%s", datasetSlug)
}

// InsightKey keys insight signature caching per skill + entity.
func InsightKey(skillID, entityRef string) string {
	return fmt.Sprintf("insight:%s:%s", skillID, entityRef)
}

// EmbedHashKey keys content-hash dedup per profile + node.
func EmbedHashKey(profileID, nodeID string) string {
	return fmt.Sprintf("embed:%s:%s", profileID, nodeID)
}

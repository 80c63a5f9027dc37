// Package kb records knowledge-base mutation events for audit and replay.
// Every pipeline stage that upserts nodes or edges appends its events to the
// log store, plus a run-header snapshot.
package kb

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loomworks/loom/pkg/logstore"
)

// Event is one knowledge-base mutation.
type Event struct {
	Seq         int64  `json:"seq"`
	RunID       string `json:"runId"`
	DatasetSlug string `json:"datasetSlug"`
	Op          string `json:"op"` // upsert_node / upsert_edge
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Hash        string `json:"hash"`
	At          string `json:"at"`
}

// Digest builds a short content hash for dedup during replay.
func Digest(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum[:6])
}

// NewEvent stamps an event with the current time.
func NewEvent(seq int64, runID, dataset, op, kind, id string, hashParts ...string) Event {
	return Event{
		Seq:         seq,
		RunID:       runID,
		DatasetSlug: dataset,
		Op:          op,
		Kind:        kind,
		ID:          id,
		Hash:        Digest(hashParts...),
		At:          time.Now().UTC().Format(time.RFC3339),
	}
}

// Save appends events to the log store and writes a run-header snapshot.
// Returns the events path and snapshot path; a nil store is a no-op so
// stages degrade gracefully without log storage configured.
func Save(ctx context.Context, store logstore.Store, dataset, runID string, events []Event, seq int64) (string, string) {
	if store == nil {
		return "", ""
	}
	_ = store.CreateTable(ctx, dataset)

	var eventsPath, snapPath string
	if len(events) > 0 {
		records := make([]logstore.Record, 0, len(events))
		for _, ev := range events {
			records = append(records, logstore.Record{
				RunID:       ev.RunID,
				DatasetSlug: ev.DatasetSlug,
				Op:          ev.Op,
				Kind:        ev.Kind,
				ID:          ev.ID,
				Hash:        ev.Hash,
				Seq:         ev.Seq,
				At:          ev.At,
			})
		}
		if path, err := store.Append(ctx, dataset, runID, records); err == nil {
			eventsPath = path
		}
	}

	header := map[string]any{
		"runId":       runID,
		"dataset":     dataset,
		"events":      seq,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	}
	hb, _ := json.Marshal(header)
	if path, err := store.WriteSnapshot(ctx, dataset, runID, hb); err == nil {
		snapPath = path
	}
	return eventsPath, snapPath
}

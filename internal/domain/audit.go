package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditActionIngest tags audit entries written by the ingestion pipeline.
const AuditActionIngest = "building_ingest"

// SystemActor identifies pipeline-originated audit entries.
const SystemActor = "system"

// AuditEntry is one audit record. The pipeline writes exactly one per
// completed non-dry-run ingest that created or updated at least one building.
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	DatasetID uuid.UUID      `json:"dataset_id"`
	Actor     string         `json:"actor"`
	Summary   map[string]any `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewIngestAudit builds the audit entry for a completed pipeline run.
func NewIngestAudit(datasetID uuid.UUID, stats IngestionStats, sourcePath, format string) AuditEntry {
	return AuditEntry{
		ID:        uuid.New(),
		Action:    AuditActionIngest,
		DatasetID: datasetID,
		Actor:     SystemActor,
		Summary: map[string]any{
			"processed": stats.Processed,
			"created":   stats.Created,
			"updated":   stats.Updated,
			"skipped":   stats.Skipped,
			"errors":    stats.Errors,
			"source":    sourcePath,
			"format":    format,
		},
		CreatedAt: time.Now(),
	}
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityheat/heatadmin/internal/domain"
)

// auditLogRepository implements AuditLogRepository backed by pgxpool.
type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	if r.pool == nil {
		return fmt.Errorf("audit log repository not initialized")
	}

	summaryJSON, err := json.Marshal(entry.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal audit summary: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO audit_log (id, action, dataset_id, actor, summary)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID,
		entry.Action,
		entry.DatasetID,
		entry.Actor,
		summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

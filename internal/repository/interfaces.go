package repository

import (
	"context"
	"errors"

	"github.com/cityheat/heatadmin/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// DatasetRepository defines the interface for dataset operations.
type DatasetRepository interface {
	Create(ctx context.Context, dataset domain.Dataset) (domain.Dataset, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Dataset, error)
	GetByName(ctx context.Context, name string) (domain.Dataset, error)
	List(ctx context.Context) ([]domain.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BuildingWriter exposes the write operations available inside one
// transaction. The batch upserter applies a whole chunk through a single
// writer so the chunk commits or rolls back as a unit.
type BuildingWriter interface {
	Exists(ctx context.Context, gid string) (bool, error)
	Insert(ctx context.Context, building domain.Building) error
	Replace(ctx context.Context, building domain.Building) error
}

// BuildingRepository defines the canonical building store.
type BuildingRepository interface {
	Exists(ctx context.Context, gid string) (bool, error)
	GetByGID(ctx context.Context, gid string) (domain.Building, error)
	CountByDataset(ctx context.Context, datasetID uuid.UUID) (int64, error)
	// ListByDataset returns one page of a dataset's buildings in stable GID
	// order.
	ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int, offset int) ([]domain.Building, error)
	// InTx runs fn inside one transaction; a non-nil error from fn rolls
	// everything back.
	InTx(ctx context.Context, fn func(BuildingWriter) error) error
}

// AuditLogRepository records pipeline audit entries.
type AuditLogRepository interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// IngestionLogRepository stores ingestion errors for observability.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, datasetID uuid.UUID, fileName string, limit int, offset int) ([]domain.IngestionLogEntry, error)
}

package ingestion

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cityheat/heatadmin/internal/domain"
	"github.com/cityheat/heatadmin/internal/repository"
)

// Mode selects how records collide with existing buildings.
type Mode string

const (
	// ModeCreate skips records whose GID already exists.
	ModeCreate Mode = "create"
	// ModeUpsert replaces existing records and creates the rest.
	ModeUpsert Mode = "update"
)

// ParseMode validates a mode string from the invocation surface.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeCreate, ModeUpsert:
		return Mode(raw), nil
	case "":
		return ModeCreate, nil
	default:
		return "", fmt.Errorf("invalid mode %q (want %q or %q)", raw, ModeCreate, ModeUpsert)
	}
}

// BatchUpserter applies fixed-size batches of normalized buildings to the
// store, one transaction per batch.
type BatchUpserter struct {
	buildings repository.BuildingRepository
	log       *logrus.Logger
}

// NewBatchUpserter creates a batch upserter over the building store.
func NewBatchUpserter(buildings repository.BuildingRepository, log *logrus.Logger) *BatchUpserter {
	return &BatchUpserter{buildings: buildings, log: log}
}

// Apply writes one batch inside a single transaction. Any storage failure
// rolls the whole batch back and counts every record in it as an error; the
// chunk succeeds or fails as a unit. In dry-run mode nothing is written and
// all records are reported as created, an intentional approximation that
// never distinguishes hypothetical create from update.
func (u *BatchUpserter) Apply(ctx context.Context, batch []domain.Building, mode Mode, dryRun bool) domain.BatchResult {
	if len(batch) == 0 {
		return domain.BatchResult{}
	}

	if dryRun {
		return domain.BatchResult{Created: len(batch)}
	}

	var result domain.BatchResult
	err := u.buildings.InTx(ctx, func(writer repository.BuildingWriter) error {
		for _, building := range batch {
			exists, err := writer.Exists(ctx, building.GID)
			if err != nil {
				return fmt.Errorf("building %s: %w", building.GID, err)
			}

			switch {
			case mode == ModeCreate && exists:
				result.Skipped++
			case exists:
				if err := writer.Replace(ctx, building); err != nil {
					return err
				}
				result.Updated++
			default:
				if err := writer.Insert(ctx, building); err != nil {
					return err
				}
				result.Created++
			}
		}
		return nil
	})
	if err != nil {
		u.log.WithError(err).WithField("batch_size", len(batch)).Warn("batch rolled back")
		return domain.BatchResult{Errors: len(batch)}
	}

	return result
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cityheat/heatadmin/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same SQL
// helpers serve reads and transactional writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// buildingRepository implements BuildingRepository backed by pgxpool.
type buildingRepository struct {
	pool *pgxpool.Pool
}

// NewBuildingRepository creates a new building repository.
func NewBuildingRepository(pool *pgxpool.Pool) BuildingRepository {
	return &buildingRepository{pool: pool}
}

func (r *buildingRepository) Exists(ctx context.Context, gid string) (bool, error) {
	return buildingExists(ctx, r.pool, gid)
}

func (r *buildingRepository) GetByGID(ctx context.Context, gid string) (domain.Building, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT gid, dataset_id, geometry, classification, address, cadastral_reference, owner_details,
		        average_heatloss, reference_heatloss, heatloss_difference, abs_heatloss_difference,
		        threshold, is_anomaly, confidence, last_analyzed_at, created_at, updated_at
		 FROM buildings
		 WHERE gid = $1`,
		gid,
	)
	building, err := scanBuilding(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Building{}, fmt.Errorf("building %s: %w", gid, ErrNotFound)
		}
		return domain.Building{}, fmt.Errorf("failed to get building: %w", err)
	}
	return building, nil
}

func (r *buildingRepository) CountByDataset(ctx context.Context, datasetID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM buildings WHERE dataset_id = $1`, datasetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count buildings: %w", err)
	}
	return count, nil
}

func (r *buildingRepository) ListByDataset(ctx context.Context, datasetID uuid.UUID, limit int, offset int) ([]domain.Building, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT gid, dataset_id, geometry, classification, address, cadastral_reference, owner_details,
		        average_heatloss, reference_heatloss, heatloss_difference, abs_heatloss_difference,
		        threshold, is_anomaly, confidence, last_analyzed_at, created_at, updated_at
		 FROM buildings
		 WHERE dataset_id = $1
		 ORDER BY gid
		 LIMIT $2 OFFSET $3`,
		datasetID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []domain.Building
	for rows.Next() {
		building, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, building)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

func (r *buildingRepository) InTx(ctx context.Context, fn func(BuildingWriter) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&buildingTxWriter{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildingTxWriter applies writes through an open transaction.
type buildingTxWriter struct {
	tx pgx.Tx
}

func (w *buildingTxWriter) Exists(ctx context.Context, gid string) (bool, error) {
	return buildingExists(ctx, w.tx, gid)
}

func (w *buildingTxWriter) Insert(ctx context.Context, building domain.Building) error {
	geometryJSON, err := building.Geometry.ToJSONB()
	if err != nil {
		return err
	}

	_, err = w.tx.Exec(
		ctx,
		`INSERT INTO buildings (gid, dataset_id, geometry, classification, address, cadastral_reference,
		        owner_details, average_heatloss, reference_heatloss, heatloss_difference,
		        abs_heatloss_difference, threshold, is_anomaly, confidence, last_analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		building.GID,
		building.DatasetID,
		geometryJSON,
		building.Classification,
		building.Address,
		building.CadastralReference,
		building.OwnerDetails,
		building.AverageHeatloss,
		building.ReferenceHeatloss,
		building.HeatlossDifference,
		building.AbsHeatlossDifference,
		building.Threshold,
		building.IsAnomaly,
		building.Confidence,
		building.LastAnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert building %s: %w", building.GID, err)
	}
	return nil
}

func (w *buildingTxWriter) Replace(ctx context.Context, building domain.Building) error {
	geometryJSON, err := building.Geometry.ToJSONB()
	if err != nil {
		return err
	}

	_, err = w.tx.Exec(
		ctx,
		`UPDATE buildings
		 SET dataset_id = $2,
		     geometry = $3,
		     classification = $4,
		     address = $5,
		     cadastral_reference = $6,
		     owner_details = $7,
		     average_heatloss = $8,
		     reference_heatloss = $9,
		     heatloss_difference = $10,
		     abs_heatloss_difference = $11,
		     threshold = $12,
		     is_anomaly = $13,
		     confidence = $14,
		     last_analyzed_at = $15,
		     updated_at = NOW()
		 WHERE gid = $1`,
		building.GID,
		building.DatasetID,
		geometryJSON,
		building.Classification,
		building.Address,
		building.CadastralReference,
		building.OwnerDetails,
		building.AverageHeatloss,
		building.ReferenceHeatloss,
		building.HeatlossDifference,
		building.AbsHeatlossDifference,
		building.Threshold,
		building.IsAnomaly,
		building.Confidence,
		building.LastAnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to replace building %s: %w", building.GID, err)
	}
	return nil
}

func buildingExists(ctx context.Context, q querier, gid string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM buildings WHERE gid = $1)`, gid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check building existence: %w", err)
	}
	return exists, nil
}

func scanBuilding(row pgx.Row) (domain.Building, error) {
	var (
		building              domain.Building
		geometryJSON          []byte
		address               pgtype.Text
		cadastralReference    pgtype.Text
		ownerDetails          pgtype.Text
		averageHeatloss       decimal.NullDecimal
		referenceHeatloss     decimal.NullDecimal
		heatlossDifference    decimal.NullDecimal
		absHeatlossDifference decimal.NullDecimal
		threshold             decimal.NullDecimal
		confidence            decimal.NullDecimal
		lastAnalyzedAt        pgtype.Timestamptz
	)

	if err := row.Scan(
		&building.GID,
		&building.DatasetID,
		&geometryJSON,
		&building.Classification,
		&address,
		&cadastralReference,
		&ownerDetails,
		&averageHeatloss,
		&referenceHeatloss,
		&heatlossDifference,
		&absHeatlossDifference,
		&threshold,
		&building.IsAnomaly,
		&confidence,
		&lastAnalyzedAt,
		&building.CreatedAt,
		&building.UpdatedAt,
	); err != nil {
		return domain.Building{}, err
	}

	geometry, err := domain.PolygonFromJSONB(geometryJSON)
	if err != nil {
		return domain.Building{}, fmt.Errorf("failed to decode geometry for building %s: %w", building.GID, err)
	}
	building.Geometry = geometry

	building.Address = textPtr(address)
	building.CadastralReference = textPtr(cadastralReference)
	building.OwnerDetails = textPtr(ownerDetails)
	building.AverageHeatloss = decimalPtr(averageHeatloss)
	building.ReferenceHeatloss = decimalPtr(referenceHeatloss)
	building.HeatlossDifference = decimalPtr(heatlossDifference)
	building.AbsHeatlossDifference = decimalPtr(absHeatlossDifference)
	building.Threshold = decimalPtr(threshold)
	building.Confidence = decimalPtr(confidence)
	if lastAnalyzedAt.Valid {
		building.LastAnalyzedAt = &lastAnalyzedAt.Time
	}

	return building, nil
}

func textPtr(value pgtype.Text) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func decimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	d := value.Decimal
	return &d
}

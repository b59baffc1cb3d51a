package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityheat/heatadmin/internal/domain"
)

// datasetRepository implements DatasetRepository backed by pgxpool.
type datasetRepository struct {
	pool *pgxpool.Pool
}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(pool *pgxpool.Pool) DatasetRepository {
	return &datasetRepository{pool: pool}
}

func (r *datasetRepository) Create(ctx context.Context, dataset domain.Dataset) (domain.Dataset, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO datasets (id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, created_at, updated_at`,
		dataset.ID,
		dataset.Name,
		dataset.Description,
	)
	created, err := scanDataset(row)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to create dataset: %w", err)
	}
	return created, nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Dataset, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets WHERE id = $1`,
		id,
	)
	dataset, err := scanDataset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return domain.Dataset{}, fmt.Errorf("failed to get dataset: %w", err)
	}
	return dataset, nil
}

func (r *datasetRepository) GetByName(ctx context.Context, name string) (domain.Dataset, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets WHERE name = $1`,
		name,
	)
	dataset, err := scanDataset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dataset{}, fmt.Errorf("dataset %q: %w", name, ErrNotFound)
		}
		return domain.Dataset{}, fmt.Errorf("failed to get dataset by name: %w", err)
	}
	return dataset, nil
}

func (r *datasetRepository) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []domain.Dataset{}
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate datasets: %w", err)
	}
	return datasets, nil
}

func (r *datasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanDataset(row pgx.Row) (domain.Dataset, error) {
	var dataset domain.Dataset
	if err := row.Scan(
		&dataset.ID,
		&dataset.Name,
		&dataset.Description,
		&dataset.CreatedAt,
		&dataset.UpdatedAt,
	); err != nil {
		return domain.Dataset{}, err
	}
	return dataset, nil
}

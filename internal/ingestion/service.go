// Package ingestion implements the geospatial building data pipeline: it
// streams rows or features from a source file, validates and normalizes them,
// and merges them into the canonical building store in per-batch
// transactions.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cityheat/heatadmin/internal/domain"
	"github.com/cityheat/heatadmin/internal/geometry"
	"github.com/cityheat/heatadmin/internal/repository"
)

// ErrUnknownSourceFormat is returned when the format cannot be resolved.
// Unlike row failures this aborts the run before any store access.
var ErrUnknownSourceFormat = errors.New("unable to determine source file format")

const (
	defaultBatchSize  = 100
	defaultErrorLimit = 20
)

// Service orchestrates one ingestion run end to end.
type Service struct {
	datasets   repository.DatasetRepository
	buildings  repository.BuildingRepository
	audits     repository.AuditLogRepository
	ingestLogs repository.IngestionLogRepository
	upserter   *BatchUpserter
	log        *logrus.Logger
}

// NewService creates a new ingestion service.
func NewService(
	datasets repository.DatasetRepository,
	buildings repository.BuildingRepository,
	audits repository.AuditLogRepository,
	ingestLogs repository.IngestionLogRepository,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		datasets:   datasets,
		buildings:  buildings,
		audits:     audits,
		ingestLogs: ingestLogs,
		upserter:   NewBatchUpserter(buildings, log),
		log:        log,
	}
}

// Request describes one ingestion invocation.
type Request struct {
	DatasetID uuid.UUID
	Path      string
	Format    Format // FormatAuto resolves from extension/content
	BatchSize int    // <= 0 means the default of 100
	Mode      Mode   // empty means create-only
	DryRun    bool
	Limit     int // > 0 stops intake once processed reaches it

	// ErrorDisplayLimit caps Summary.Errors; counting is never capped.
	ErrorDisplayLimit int
}

// Summary is the terminal report of a run.
type Summary struct {
	DatasetID   uuid.UUID             `json:"dataset_id"`
	DatasetName string                `json:"dataset_name"`
	Path        string                `json:"path"`
	Format      Format                `json:"format"`
	Mode        Mode                  `json:"mode"`
	DryRun      bool                  `json:"dry_run"`
	Stats       domain.IngestionStats `json:"stats"`
	// Degraded marks a run that finished but hit row or batch errors.
	Degraded bool `json:"degraded"`
	// Errors holds up to ErrorDisplayLimit row error messages.
	Errors []string `json:"errors,omitempty"`
	// ErrorsOmitted counts messages dropped from Errors for display.
	ErrorsOmitted int `json:"errors_omitted,omitempty"`
}

// Status renders the terminal status line for callers.
func (s Summary) Status() string {
	if s.Degraded {
		return "completed with errors"
	}
	return "succeeded"
}

// Run executes the pipeline: Validating, then streaming rows through
// validate -> parse geometry -> normalize -> batch, then Finalizing. Fatal
// configuration errors return immediately with zero stats; row errors are
// logged and counted without stopping the run.
func (s *Service) Run(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{
		DatasetID: req.DatasetID,
		Path:      req.Path,
		DryRun:    req.DryRun,
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeCreate
	}
	summary.Mode = mode

	// Validating: everything here must pass before any store write.
	dataset, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return summary, fmt.Errorf("failed to resolve target dataset: %w", err)
	}
	summary.DatasetName = dataset.Name

	if _, err := os.Stat(req.Path); err != nil {
		return summary, fmt.Errorf("source file not readable: %w", err)
	}

	format := DetectFormat(req.Path, req.Format)
	if format == FormatUnknown {
		return summary, fmt.Errorf("%w: %s", ErrUnknownSourceFormat, req.Path)
	}
	summary.Format = format

	reader, err := newReader(format, req.Path)
	if err != nil {
		return summary, err
	}
	defer reader.Close()

	runLog := s.log.WithFields(logrus.Fields{
		"dataset": dataset.Name,
		"file":    req.Path,
		"format":  format,
		"mode":    mode,
		"dry_run": req.DryRun,
	})
	runLog.Info("starting ingestion")

	// Processing: stream one record at a time; the file is never fully
	// buffered.
	var (
		stats        domain.IngestionStats
		errorLog     []string
		streamBroken bool
	)
	batch := make([]domain.Building, 0, batchSize)
	now := time.Now()
	geometryRequired := format != FormatGeoJSON

	for {
		if req.Limit > 0 && stats.Processed >= req.Limit {
			break
		}

		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var rowErr *RowError
		if errors.As(err, &rowErr) {
			stats = stats.WithProcessed().WithRowError()
			errorLog = s.recordRowError(ctx, dataset.ID, req.Path, rowErr.Row, reader.Label(), rowErr.Err, errorLog)
			continue
		}
		if err != nil {
			// The stream itself is broken; stop intake but keep what was
			// already counted and committed.
			runLog.WithError(err).Error("source stream failed, stopping intake")
			errorLog = append(errorLog, fmt.Sprintf("stream error: %v", err))
			streamBroken = true
			break
		}

		stats = stats.WithProcessed()

		if fieldErrs := ValidateRecord(record, geometryRequired); len(fieldErrs) > 0 {
			stats = stats.WithRowError()
			errorLog = s.recordRowError(ctx, dataset.ID, req.Path, record.Row, reader.Label(), joinFieldErrors(fieldErrs), errorLog)
			continue
		}

		polygon, err := geometry.Parse(record.Geometry)
		if err != nil {
			stats = stats.WithRowError()
			errorLog = s.recordRowError(ctx, dataset.ID, req.Path, record.Row, reader.Label(), fmt.Errorf("geometry: %w", err), errorLog)
			continue
		}

		building, err := NormalizeRecord(record, polygon, dataset.ID, now)
		if err != nil {
			stats = stats.WithRowError()
			errorLog = s.recordRowError(ctx, dataset.ID, req.Path, record.Row, reader.Label(), err, errorLog)
			continue
		}

		batch = append(batch, building)
		if len(batch) >= batchSize {
			stats = stats.Merge(s.upserter.Apply(ctx, batch, mode, req.DryRun))
			batch = batch[:0]
		}
	}

	// Flush whatever partial batch remains.
	stats = stats.Merge(s.upserter.Apply(ctx, batch, mode, req.DryRun))

	// Finalizing.
	if err := stats.CheckInvariant(); err != nil {
		return summary, err
	}

	if !req.DryRun && stats.Created+stats.Updated > 0 {
		entry := domain.NewIngestAudit(dataset.ID, stats, req.Path, string(format))
		if err := s.audits.Record(ctx, entry); err != nil {
			runLog.WithError(err).Warn("failed to record audit entry")
		}
	}

	summary.Stats = stats
	// A broken stream leaves the counters honest (only intaken rows are
	// counted) but the run is still partial.
	summary.Degraded = stats.Errors > 0 || streamBroken

	displayLimit := req.ErrorDisplayLimit
	if displayLimit <= 0 {
		displayLimit = defaultErrorLimit
	}
	if len(errorLog) > displayLimit {
		summary.ErrorsOmitted = len(errorLog) - displayLimit
		errorLog = errorLog[:displayLimit]
	}
	summary.Errors = errorLog

	runLog.WithField("stats", stats.String()).Info(summary.Status())

	return summary, nil
}

// recordRowError appends a formatted row error to the in-memory log and
// persists it best-effort for later inspection.
func (s *Service) recordRowError(ctx context.Context, datasetID uuid.UUID, fileName string, row int, label string, err error, errorLog []string) []string {
	message := fmt.Sprintf("%s %d: %v", label, row, err)
	errorLog = append(errorLog, message)

	if s.ingestLogs != nil {
		rowNumber := row
		recordErr := s.ingestLogs.Record(ctx, domain.IngestionLogEntry{
			DatasetID:    datasetID,
			FileName:     fileName,
			RowNumber:    &rowNumber,
			ErrorMessage: err.Error(),
		})
		if recordErr != nil {
			s.log.WithError(recordErr).Warn("failed to persist ingestion error")
		}
	}

	return errorLog
}

func joinFieldErrors(errs []FieldError) error {
	messages := make([]string, len(errs))
	for i, fieldErr := range errs {
		messages[i] = fieldErr.Error()
	}
	return errors.New(strings.Join(messages, "; "))
}

// Package export streams a dataset's buildings back out of the store into
// CSV or GeoJSON files. Output uses the same column names and coordinate
// conventions the ingestion pipeline accepts, so an exported file can be
// re-ingested.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cityheat/heatadmin/internal/domain"
	"github.com/cityheat/heatadmin/internal/repository"
)

// ErrUnsupportedExportFormat is returned for formats the exporter cannot
// write.
var ErrUnsupportedExportFormat = errors.New("unsupported export format")

var csvHeader = []string{
	"gid",
	"geometry",
	"building_type_classification",
	"address",
	"cadastral_reference",
	"owner_details",
	"average_heatloss",
	"reference_heatloss",
	"heatloss_difference",
	"abs_heatloss_difference",
	"threshold",
	"is_anomaly",
	"confidence",
}

// Exporter writes dataset snapshots in fixed-size pages so the full building
// set is never held in memory.
type Exporter struct {
	datasets  repository.DatasetRepository
	buildings repository.BuildingRepository
	pageSize  int
	log       *logrus.Logger
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithPageSize overrides how many buildings are read per store round trip.
func WithPageSize(size int) Option {
	return func(e *Exporter) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// NewExporter creates an exporter over the dataset and building stores.
func NewExporter(datasets repository.DatasetRepository, buildings repository.BuildingRepository, log *logrus.Logger, opts ...Option) *Exporter {
	if log == nil {
		log = logrus.New()
	}
	exporter := &Exporter{
		datasets:  datasets,
		buildings: buildings,
		pageSize:  1000,
		log:       log,
	}
	for _, opt := range opts {
		opt(exporter)
	}
	return exporter
}

// Request describes one export invocation.
type Request struct {
	DatasetID uuid.UUID
	Path      string // destination file; its directory must exist
	Format    string // "csv" or "geojson"
}

// Result reports a completed export.
type Result struct {
	DatasetName  string `json:"dataset_name"`
	Path         string `json:"path"`
	Rows         int    `json:"rows"`
	BytesWritten int64  `json:"bytes_written"`
}

// Run exports every building of the dataset. The output is written to a
// temporary file and promoted by rename, so a failed export never leaves a
// partial file at the destination path.
func (e *Exporter) Run(ctx context.Context, req Request) (Result, error) {
	dataset, err := e.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve dataset: %w", err)
	}

	dir := filepath.Dir(req.Path)
	tempFile, err := os.CreateTemp(dir, fmt.Sprintf(".%s-*", sanitizeFileComponent(dataset.Name)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	buffered := bufio.NewWriterSize(tempFile, 1<<20)
	counter := &countingWriter{writer: buffered}

	var rows int
	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "", "csv":
		rows, err = e.writeCSV(ctx, counter, dataset.ID)
	case "geojson":
		rows, err = e.writeGeoJSON(ctx, counter, dataset.ID)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, req.Format)
	}
	if err != nil {
		return Result{}, err
	}

	if err := buffered.Flush(); err != nil {
		return Result{}, fmt.Errorf("failed to flush export file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return Result{}, fmt.Errorf("failed to sync export file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tempPath, req.Path); err != nil {
		return Result{}, fmt.Errorf("failed to promote export file: %w", err)
	}
	cleanup = false

	e.log.WithFields(logrus.Fields{
		"dataset": dataset.Name,
		"path":    req.Path,
		"rows":    rows,
	}).Info("export completed")

	return Result{
		DatasetName:  dataset.Name,
		Path:         req.Path,
		Rows:         rows,
		BytesWritten: counter.count,
	}, nil
}

// forEachBuilding pages through the dataset in stable GID order.
func (e *Exporter) forEachBuilding(ctx context.Context, datasetID uuid.UUID, fn func(domain.Building) error) (int, error) {
	rows := 0
	offset := 0
	for {
		if ctx.Err() != nil {
			return rows, ctx.Err()
		}
		page, err := e.buildings.ListByDataset(ctx, datasetID, e.pageSize, offset)
		if err != nil {
			return rows, fmt.Errorf("failed to list buildings: %w", err)
		}
		if len(page) == 0 {
			return rows, nil
		}
		for _, building := range page {
			if err := fn(building); err != nil {
				return rows, err
			}
			rows++
		}
		if len(page) < e.pageSize {
			return rows, nil
		}
		offset += e.pageSize
	}
}

func (e *Exporter) writeCSV(ctx context.Context, out *countingWriter, datasetID uuid.UUID) (int, error) {
	csvWriter := csv.NewWriter(out)
	if err := csvWriter.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(csvHeader))
	rows, err := e.forEachBuilding(ctx, datasetID, func(building domain.Building) error {
		row[0] = building.GID
		row[1] = wktFromPolygon(building.Geometry)
		row[2] = building.Classification
		row[3] = stringValue(building.Address)
		row[4] = stringValue(building.CadastralReference)
		row[5] = stringValue(building.OwnerDetails)
		row[6] = decimalValue(building.AverageHeatloss)
		row[7] = decimalValue(building.ReferenceHeatloss)
		row[8] = decimalValue(building.HeatlossDifference)
		row[9] = decimalValue(building.AbsHeatlossDifference)
		row[10] = decimalValue(building.Threshold)
		row[11] = strconv.FormatBool(building.IsAnomaly)
		row[12] = decimalValue(building.Confidence)
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write building row: %w", err)
		}
		return nil
	})
	if err != nil {
		return rows, err
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush rows: %w", err)
	}
	return rows, nil
}

// geoJSONFeature mirrors the feature shape the ingestion reader consumes:
// properties carry the tabular columns and the geometry object carries the
// ring in (lon, lat) order.
type geoJSONFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

func (e *Exporter) writeGeoJSON(ctx context.Context, out *countingWriter, datasetID uuid.UUID) (int, error) {
	if _, err := out.Write([]byte(`{"type":"FeatureCollection","features":[`)); err != nil {
		return 0, fmt.Errorf("failed to write document head: %w", err)
	}

	encoder := json.NewEncoder(nopNewlineWriter{out})
	first := true
	rows, err := e.forEachBuilding(ctx, datasetID, func(building domain.Building) error {
		ring := make([][]float64, len(building.Geometry))
		for i, point := range building.Geometry {
			ring[i] = []float64{point.Lon, point.Lat}
		}

		properties := map[string]any{
			"gid":                          building.GID,
			"building_type_classification": building.Classification,
			"is_anomaly":                   building.IsAnomaly,
		}
		setStringProperty(properties, "address", building.Address)
		setStringProperty(properties, "cadastral_reference", building.CadastralReference)
		setStringProperty(properties, "owner_details", building.OwnerDetails)
		setDecimalProperty(properties, "average_heatloss", building.AverageHeatloss)
		setDecimalProperty(properties, "reference_heatloss", building.ReferenceHeatloss)
		setDecimalProperty(properties, "heatloss_difference", building.HeatlossDifference)
		setDecimalProperty(properties, "abs_heatloss_difference", building.AbsHeatlossDifference)
		setDecimalProperty(properties, "threshold", building.Threshold)
		setDecimalProperty(properties, "confidence", building.Confidence)

		if !first {
			if _, err := out.Write([]byte(",")); err != nil {
				return fmt.Errorf("failed to write feature separator: %w", err)
			}
		}
		first = false
		if err := encoder.Encode(geoJSONFeature{
			Type:       "Feature",
			Properties: properties,
			Geometry:   geoJSONGeometry{Type: "Polygon", Coordinates: [][][]float64{ring}},
		}); err != nil {
			return fmt.Errorf("failed to encode feature: %w", err)
		}
		return nil
	})
	if err != nil {
		return rows, err
	}

	if _, err := out.Write([]byte("]}")); err != nil {
		return rows, fmt.Errorf("failed to write document tail: %w", err)
	}
	return rows, nil
}

// wktFromPolygon renders the ring as POLYGON WKT in (lon, lat) vertex order.
func wktFromPolygon(ring domain.Polygon) string {
	if len(ring) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("POLYGON((")
	for i, point := range ring {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(strconv.FormatFloat(point.Lon, 'f', -1, 64))
		builder.WriteByte(' ')
		builder.WriteString(strconv.FormatFloat(point.Lat, 'f', -1, 64))
	}
	builder.WriteString("))")
	return builder.String()
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var builder strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "export"
	}
	return result
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func decimalValue(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.String()
}

func setStringProperty(properties map[string]any, key string, value *string) {
	if value != nil {
		properties[key] = *value
	}
}

func setDecimalProperty(properties map[string]any, key string, value *decimal.Decimal) {
	if value != nil {
		properties[key] = json.Number(value.String())
	}
}

type countingWriter struct {
	writer *bufio.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}

// nopNewlineWriter drops the trailing newline json.Encoder emits after every
// value so features pack tightly inside the array.
type nopNewlineWriter struct {
	out *countingWriter
}

func (w nopNewlineWriter) Write(p []byte) (int, error) {
	trimmed := p
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] == '\n' {
		if _, err := w.out.Write(trimmed[:len(trimmed)-1]); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return w.out.Write(p)
}

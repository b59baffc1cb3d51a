package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cityheat/heatadmin/internal/domain"
)

// ErrUnsupportedFormat is returned when no reader exists for a format.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Source column names. The classification column name is fixed by the
// upstream data contract.
const (
	colGID                   = "gid"
	colBuildingID            = "building_id"
	colGeometry              = "geometry"
	colClassification        = "building_type_classification"
	colAddress               = "address"
	colCadastralReference    = "cadastral_reference"
	colOwnerDetails          = "owner_details"
	colAverageHeatloss       = "average_heatloss"
	colReferenceHeatloss     = "reference_heatloss"
	colHeatlossDifference    = "heatloss_difference"
	colAbsHeatlossDifference = "abs_heatloss_difference"
	colThreshold             = "threshold"
	colConfidence            = "confidence"
	colIsAnomaly             = "is_anomaly"
)

// RowError marks a failure scoped to a single row or feature. The pipeline
// records it and keeps reading.
type RowError struct {
	Row   int
	Label string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Label, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// recordReader streams RawRecords from a source file. Next returns io.EOF at
// end of stream, a *RowError for recoverable per-row failures, and any other
// error when the stream itself is broken.
type recordReader interface {
	Next() (domain.RawRecord, error)
	// Label names the row unit for error messages ("row" or "feature").
	Label() string
	Close() error
}

func newReader(format Format, path string) (recordReader, error) {
	switch format {
	case FormatCSV:
		return newCSVReader(path)
	case FormatGeoJSON:
		return newGeoJSONReader(path)
	case FormatXLSX:
		return newXLSXReader(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// recordFromColumns maps named columns into a RawRecord. Values are trimmed
// at the boundary so downstream code never sees stray whitespace.
func recordFromColumns(get func(name string) string, row int) domain.RawRecord {
	return domain.RawRecord{
		Row:                   row,
		GID:                   strings.TrimSpace(get(colGID)),
		BuildingID:            strings.TrimSpace(get(colBuildingID)),
		Geometry:              strings.TrimSpace(get(colGeometry)),
		Classification:        strings.TrimSpace(get(colClassification)),
		Address:               strings.TrimSpace(get(colAddress)),
		CadastralReference:    strings.TrimSpace(get(colCadastralReference)),
		OwnerDetails:          strings.TrimSpace(get(colOwnerDetails)),
		AverageHeatloss:       strings.TrimSpace(get(colAverageHeatloss)),
		ReferenceHeatloss:     strings.TrimSpace(get(colReferenceHeatloss)),
		HeatlossDifference:    strings.TrimSpace(get(colHeatlossDifference)),
		AbsHeatlossDifference: strings.TrimSpace(get(colAbsHeatlossDifference)),
		Threshold:             strings.TrimSpace(get(colThreshold)),
		Confidence:            strings.TrimSpace(get(colConfidence)),
		IsAnomaly:             strings.TrimSpace(get(colIsAnomaly)),
	}
}

// tabularIndex maps sanitized header names to column positions.
type tabularIndex map[string]int

func indexHeader(header []string) tabularIndex {
	index := make(tabularIndex, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

func (idx tabularIndex) value(row []string, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// csvReader streams one CSV row at a time; the whole file is never held in
// memory.
type csvReader struct {
	file   *os.File
	csv    *csv.Reader
	index  tabularIndex
	line   int // 1-based source line, header included
}

func newCSVReader(path string) (*csvReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}

	buffered := bufio.NewReader(file)
	if prefix, err := buffered.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = buffered.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(buffered)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	return &csvReader{
		file:  file,
		csv:   reader,
		index: indexHeader(header),
		line:  1,
	}, nil
}

func (r *csvReader) Next() (domain.RawRecord, error) {
	row, err := r.csv.Read()
	r.line++
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawRecord{}, io.EOF
		}
		// csv parse errors only poison the current record.
		return domain.RawRecord{}, &RowError{Row: r.line, Label: r.Label(), Err: err}
	}

	return recordFromColumns(func(name string) string {
		return r.index.value(row, name)
	}, r.line), nil
}

func (r *csvReader) Label() string { return "row" }

func (r *csvReader) Close() error { return r.file.Close() }

// geoJSONReader streams features out of a FeatureCollection without decoding
// the whole document.
type geoJSONReader struct {
	file    *os.File
	decoder *json.Decoder
	feature int // 1-based feature index
}

func newGeoJSONReader(path string) (*geoJSONReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}

	decoder := json.NewDecoder(bufio.NewReader(file))
	if err := advanceToFeatures(decoder); err != nil {
		file.Close()
		return nil, err
	}

	return &geoJSONReader{file: file, decoder: decoder}, nil
}

// advanceToFeatures positions the decoder just inside the "features" array.
func advanceToFeatures(decoder *json.Decoder) error {
	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read geojson document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("geojson document is not an object")
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("failed to read geojson document: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return errors.New("geojson document has no features array")
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("malformed geojson document")
		}
		if key == "features" {
			tok, err := decoder.Token()
			if err != nil {
				return fmt.Errorf("failed to read features array: %w", err)
			}
			if delim, ok := tok.(json.Delim); !ok || delim != '[' {
				return errors.New("geojson features is not an array")
			}
			return nil
		}
		// Skip the value of any other top-level key.
		var skip json.RawMessage
		if err := decoder.Decode(&skip); err != nil {
			return fmt.Errorf("failed to skip geojson value: %w", err)
		}
	}
}

func (r *geoJSONReader) Next() (domain.RawRecord, error) {
	if !r.decoder.More() {
		return domain.RawRecord{}, io.EOF
	}

	r.feature++

	var feature struct {
		Type       string          `json:"type"`
		Properties map[string]any  `json:"properties"`
		Geometry   json.RawMessage `json:"geometry"`
	}
	if err := r.decoder.Decode(&feature); err != nil {
		// A decode failure here means the stream itself is broken; it is not
		// recoverable per feature.
		return domain.RawRecord{}, fmt.Errorf("failed to decode feature %d: %w", r.feature, err)
	}

	if feature.Type != "Feature" {
		return domain.RawRecord{}, &RowError{
			Row:   r.feature,
			Label: r.Label(),
			Err:   fmt.Errorf("unexpected feature type %q", feature.Type),
		}
	}
	if feature.Properties == nil {
		return domain.RawRecord{}, &RowError{
			Row:   r.feature,
			Label: r.Label(),
			Err:   errors.New("feature has no properties object"),
		}
	}

	record := recordFromColumns(func(name string) string {
		return propertyString(feature.Properties[name])
	}, r.feature)
	// Geometry comes out-of-band from the feature, not from properties.
	record.Geometry = strings.TrimSpace(string(feature.Geometry))

	return record, nil
}

func (r *geoJSONReader) Label() string { return "feature" }

func (r *geoJSONReader) Close() error { return r.file.Close() }

// propertyString renders a GeoJSON property value as the raw string form the
// validator expects.
func propertyString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// xlsxReader streams rows from the first sheet of a spreadsheet, treating
// them exactly like CSV rows.
type xlsxReader struct {
	file  *excelize.File
	rows  *excelize.Rows
	index tabularIndex
	line  int
}

func newXLSXReader(path string) (*xlsxReader, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		file.Close()
		return nil, errors.New("xlsx file has no sheets")
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	if !rows.Next() {
		rows.Close()
		file.Close()
		return nil, errors.New("failed to read xlsx header: sheet is empty")
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		file.Close()
		return nil, fmt.Errorf("failed to read xlsx header: %w", err)
	}

	return &xlsxReader{
		file:  file,
		rows:  rows,
		index: indexHeader(header),
		line:  1,
	}, nil
}

func (r *xlsxReader) Next() (domain.RawRecord, error) {
	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return domain.RawRecord{}, fmt.Errorf("failed to iterate xlsx rows: %w", err)
		}
		return domain.RawRecord{}, io.EOF
	}

	r.line++
	row, err := r.rows.Columns()
	if err != nil {
		return domain.RawRecord{}, &RowError{Row: r.line, Label: r.Label(), Err: err}
	}

	return recordFromColumns(func(name string) string {
		return r.index.value(row, name)
	}, r.line), nil
}

func (r *xlsxReader) Label() string { return "row" }

func (r *xlsxReader) Close() error {
	r.rows.Close()
	return r.file.Close()
}

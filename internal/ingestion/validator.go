package ingestion

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cityheat/heatadmin/internal/domain"
)

const (
	maxGIDLength            = 255
	maxClassificationLength = 100
)

// FieldError describes one validation failure on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRecord checks a raw record against the building schema constraints.
// It returns every failure rather than stopping at the first one, and never
// errors on isAnomaly: unrecognized tokens simply read as false.
//
// geometryRequired is true for tabular sources, where geometry travels in a
// column; GeoJSON supplies geometry out-of-band on the feature, so an empty
// value there is checked later by the geometry parser.
func ValidateRecord(record domain.RawRecord, geometryRequired bool) []FieldError {
	var errs []FieldError

	gid := record.EffectiveGID()
	if gid == "" {
		errs = append(errs, FieldError{Field: colGID, Message: "is required"})
	} else if len(gid) > maxGIDLength {
		errs = append(errs, FieldError{
			Field:   colGID,
			Message: fmt.Sprintf("must be at most %d characters, got %d", maxGIDLength, len(gid)),
		})
	}

	if record.Classification == "" {
		errs = append(errs, FieldError{Field: colClassification, Message: "is required"})
	} else if len(record.Classification) > maxClassificationLength {
		errs = append(errs, FieldError{
			Field:   colClassification,
			Message: fmt.Sprintf("must be at most %d characters, got %d", maxClassificationLength, len(record.Classification)),
		})
	}

	if geometryRequired && record.Geometry == "" {
		errs = append(errs, FieldError{Field: colGeometry, Message: "is required"})
	}

	numericFields := []struct {
		name  string
		value string
	}{
		{colAverageHeatloss, record.AverageHeatloss},
		{colReferenceHeatloss, record.ReferenceHeatloss},
		{colHeatlossDifference, record.HeatlossDifference},
		{colAbsHeatlossDifference, record.AbsHeatlossDifference},
		{colThreshold, record.Threshold},
	}
	for _, field := range numericFields {
		if field.value == "" {
			continue
		}
		if _, err := decimal.NewFromString(field.value); err != nil {
			errs = append(errs, FieldError{
				Field:   field.name,
				Message: fmt.Sprintf("must be numeric, got %q", field.value),
			})
		}
	}

	if record.Confidence != "" {
		confidence, err := decimal.NewFromString(record.Confidence)
		switch {
		case err != nil:
			errs = append(errs, FieldError{
				Field:   colConfidence,
				Message: fmt.Sprintf("must be numeric, got %q", record.Confidence),
			})
		case confidence.IsNegative() || confidence.GreaterThan(decimal.NewFromInt(1)):
			errs = append(errs, FieldError{
				Field:   colConfidence,
				Message: fmt.Sprintf("must be between 0 and 1, got %s", confidence),
			})
		}
	}

	return errs
}

package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cityheat/heatadmin/internal/domain"
)

// truthy tokens accepted for is_anomaly, case-insensitive. Anything else is
// false, never an error.
func parseAnomalyFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}

// NormalizeRecord maps a validated raw record and its parsed geometry into
// the canonical Building. Empty strings become absent values, never zero.
// lastAnalyzedAt is stamped only when the row actually carried thermal data.
func NormalizeRecord(record domain.RawRecord, geometry domain.Polygon, datasetID uuid.UUID, now time.Time) (domain.Building, error) {
	building := domain.Building{
		GID:                record.EffectiveGID(),
		DatasetID:          datasetID,
		Geometry:           geometry,
		Classification:     strings.TrimSpace(record.Classification),
		Address:            optionalString(record.Address),
		CadastralReference: optionalString(record.CadastralReference),
		OwnerDetails:       optionalString(record.OwnerDetails),
		IsAnomaly:          parseAnomalyFlag(record.IsAnomaly),
	}

	var err error
	if building.AverageHeatloss, err = optionalDecimal(colAverageHeatloss, record.AverageHeatloss); err != nil {
		return domain.Building{}, err
	}
	if building.ReferenceHeatloss, err = optionalDecimal(colReferenceHeatloss, record.ReferenceHeatloss); err != nil {
		return domain.Building{}, err
	}
	if building.HeatlossDifference, err = optionalDecimal(colHeatlossDifference, record.HeatlossDifference); err != nil {
		return domain.Building{}, err
	}
	if building.AbsHeatlossDifference, err = optionalDecimal(colAbsHeatlossDifference, record.AbsHeatlossDifference); err != nil {
		return domain.Building{}, err
	}
	if building.Threshold, err = optionalDecimal(colThreshold, record.Threshold); err != nil {
		return domain.Building{}, err
	}
	if building.Confidence, err = optionalDecimal(colConfidence, record.Confidence); err != nil {
		return domain.Building{}, err
	}

	for _, value := range record.ThermalValues() {
		if strings.TrimSpace(value) != "" {
			analyzedAt := now
			building.LastAnalyzedAt = &analyzedAt
			break
		}
	}

	return building, nil
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalDecimal(field, raw string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("field %s: unable to coerce %q to decimal: %w", field, raw, err)
	}
	return &value, nil
}

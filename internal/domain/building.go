package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Building is the canonical footprint record keyed by its global identifier.
// The GID is stable across datasets and re-imports; once a building exists its
// GID never changes.
type Building struct {
	GID                   string           `json:"gid"`
	DatasetID             uuid.UUID        `json:"dataset_id"`
	Geometry              Polygon          `json:"geometry"`
	Classification        string           `json:"classification"`
	Address               *string          `json:"address,omitempty"`
	CadastralReference    *string          `json:"cadastral_reference,omitempty"`
	OwnerDetails          *string          `json:"owner_details,omitempty"`
	AverageHeatloss       *decimal.Decimal `json:"average_heatloss,omitempty"`
	ReferenceHeatloss     *decimal.Decimal `json:"reference_heatloss,omitempty"`
	HeatlossDifference    *decimal.Decimal `json:"heatloss_difference,omitempty"`
	AbsHeatlossDifference *decimal.Decimal `json:"abs_heatloss_difference,omitempty"`
	Threshold             *decimal.Decimal `json:"threshold,omitempty"`
	IsAnomaly             bool             `json:"is_anomaly"`
	Confidence            *decimal.Decimal `json:"confidence,omitempty"`
	LastAnalyzedAt        *time.Time       `json:"last_analyzed_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// HasThermalData reports whether any thermal metric was supplied.
func (b Building) HasThermalData() bool {
	return b.AverageHeatloss != nil ||
		b.ReferenceHeatloss != nil ||
		b.HeatlossDifference != nil ||
		b.AbsHeatlossDifference != nil ||
		b.Threshold != nil
}

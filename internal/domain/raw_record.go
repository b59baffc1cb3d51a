package domain

import "strings"

// RawRecord is one source row or feature as read, before validation. All
// values are raw strings; the empty string means the source did not supply the
// field. Readers construct one RawRecord per row so the validator and
// normalizer never touch string-keyed field maps.
type RawRecord struct {
	// Row is the 1-based position in the source used for error reporting.
	// CSV rows count the header as line 1; GeoJSON uses the 1-based feature
	// index.
	Row int

	GID        string
	BuildingID string

	// Geometry holds the raw geometry value: a WKT string for tabular
	// sources, or the feature's geometry object serialized as JSON.
	Geometry string

	Classification     string
	Address            string
	CadastralReference string
	OwnerDetails       string

	AverageHeatloss       string
	ReferenceHeatloss     string
	HeatlossDifference    string
	AbsHeatlossDifference string
	Threshold             string
	Confidence            string
	IsAnomaly             string
}

// EffectiveGID resolves the record identity: an explicit building_id column
// overrides gid, supporting anomaly-style re-imports keyed by the alternate
// column. The precedence is deliberate and covered by tests.
func (r RawRecord) EffectiveGID() string {
	if id := strings.TrimSpace(r.BuildingID); id != "" {
		return id
	}
	return strings.TrimSpace(r.GID)
}

// ThermalValues lists the raw thermal metric values in declaration order.
func (r RawRecord) ThermalValues() []string {
	return []string{
		r.AverageHeatloss,
		r.ReferenceHeatloss,
		r.HeatlossDifference,
		r.AbsHeatlossDifference,
		r.Threshold,
	}
}

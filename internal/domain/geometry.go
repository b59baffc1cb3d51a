package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Point is a single vertex in latitude/longitude order.
//
// Source files carry coordinates as (lon, lat); the parsers convert to this
// internal order at the boundary so nothing downstream has to remember which
// convention a value came from.
type Point struct {
	Lat float64
	Lon float64
}

// MarshalJSON encodes the point as a [lat, lon] pair.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lon})
}

// UnmarshalJSON decodes a [lat, lon] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid point encoding: %w", err)
	}
	p.Lat = pair[0]
	p.Lon = pair[1]
	return nil
}

// Polygon is a single closed exterior ring. Interior rings (holes) and
// additional polygons of a multi-polygon source are not represented.
type Polygon []Point

var (
	// ErrRingTooShort indicates fewer than four vertices after parsing.
	ErrRingTooShort = errors.New("polygon ring must have at least 4 points")

	// ErrRingNotClosed indicates the first and last vertices differ.
	ErrRingNotClosed = errors.New("polygon ring must be closed (first point == last point)")
)

// Validate checks the closed-ring invariant.
func (p Polygon) Validate() error {
	if len(p) < 4 {
		return fmt.Errorf("%w, got %d", ErrRingTooShort, len(p))
	}
	if p[0] != p[len(p)-1] {
		return ErrRingNotClosed
	}
	return nil
}

// ToJSONB serializes the ring for JSONB storage.
func (p Polygon) ToJSONB() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon: %w", err)
	}
	return data, nil
}

// PolygonFromJSONB deserializes a ring stored as JSONB.
func PolygonFromJSONB(data []byte) (Polygon, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p Polygon
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal polygon: %w", err)
	}
	return p, nil
}

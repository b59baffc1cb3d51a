// Package geometry converts WKT and GeoJSON geometry values into the
// canonical closed ring of (lat, lon) vertices.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cityheat/heatadmin/internal/domain"
)

var (
	// ErrUnknownFormat is returned when a value is neither a GeoJSON Polygon
	// nor a POLYGON/MULTIPOLYGON WKT string.
	ErrUnknownFormat = errors.New("unknown geometry format")

	// ErrInvalidCoordinate is returned when a coordinate is not a numeric
	// pair of at least two ordinates.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrEmptyRing is returned when no exterior ring could be extracted.
	ErrEmptyRing = errors.New("geometry has no exterior ring")
)

// multiPolygonRing captures the first ring of the first polygon: the text
// inside the outermost triple-nested parentheses. Further rings and polygons
// are discarded; see Parse.
var multiPolygonRing = regexp.MustCompile(`(?is)^MULTIPOLYGON\s*(?:Z\s*)?\(\s*\(\s*\(([^)]*)\)`)

// Parse converts a raw geometry value into a closed (lat, lon) ring.
//
// Accepted inputs: a GeoJSON object with type "Polygon" (as a JSON string), a
// POLYGON WKT string, or a MULTIPOLYGON / MULTIPOLYGON Z WKT string. For
// multi-polygons only the first polygon's exterior ring survives and any Z
// ordinate is dropped; holes and additional polygons are lost. That is a
// deliberate simplification carried over from the source data pipeline.
//
// Parse failures are row-level: callers record the error against the row and
// keep going.
func Parse(raw string) (domain.Polygon, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrUnknownFormat
	}

	if strings.HasPrefix(trimmed, "{") {
		return ParseGeoJSON([]byte(trimmed))
	}

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "MULTIPOLYGON") {
		collapsed, err := collapseMultiPolygon(trimmed)
		if err != nil {
			return nil, err
		}
		trimmed = collapsed
		upper = strings.ToUpper(trimmed)
	}

	if strings.HasPrefix(upper, "POLYGON") {
		return parsePolygonWKT(trimmed)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, prefixOf(trimmed))
}

// ParseGeoJSON converts a GeoJSON Polygon object into the internal ring.
func ParseGeoJSON(raw []byte) (domain.Polygon, error) {
	var geom struct {
		Type        string            `json:"type"`
		Coordinates []json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if !strings.EqualFold(geom.Type, "Polygon") {
		return nil, fmt.Errorf("%w: geojson type %q", ErrUnknownFormat, geom.Type)
	}
	if len(geom.Coordinates) == 0 {
		return nil, ErrEmptyRing
	}

	// coordinates[0] is the exterior ring; interior rings are ignored.
	var rawRing []json.RawMessage
	if err := json.Unmarshal(geom.Coordinates[0], &rawRing); err != nil {
		return nil, fmt.Errorf("%w: exterior ring is not an array", ErrInvalidCoordinate)
	}

	ring := make(domain.Polygon, 0, len(rawRing))
	for i, rawPoint := range rawRing {
		var pair []float64
		if err := json.Unmarshal(rawPoint, &pair); err != nil {
			return nil, fmt.Errorf("%w: ring position %d is not a numeric array", ErrInvalidCoordinate, i)
		}
		if len(pair) < 2 {
			return nil, fmt.Errorf("%w: ring position %d has %d ordinates, need at least 2", ErrInvalidCoordinate, i, len(pair))
		}
		// GeoJSON order is [lon, lat].
		ring = append(ring, domain.Point{Lat: pair[1], Lon: pair[0]})
	}

	if err := ring.Validate(); err != nil {
		return nil, err
	}
	return ring, nil
}

// collapseMultiPolygon rewrites a MULTIPOLYGON (Z) WKT string as a plain
// POLYGON over its first exterior ring, stripping any third ordinate.
func collapseMultiPolygon(wkt string) (string, error) {
	match := multiPolygonRing.FindStringSubmatch(wkt)
	if match == nil {
		return "", fmt.Errorf("%w: malformed MULTIPOLYGON", ErrUnknownFormat)
	}

	vertices := strings.Split(match[1], ",")
	flattened := make([]string, 0, len(vertices))
	for i, vertex := range vertices {
		fields := strings.Fields(strings.TrimSpace(vertex))
		if len(fields) < 2 {
			return "", fmt.Errorf("%w: vertex %d has %d ordinates", ErrInvalidCoordinate, i, len(fields))
		}
		// Keep lon lat, drop the Z ordinate (and anything after it).
		flattened = append(flattened, fields[0]+" "+fields[1])
	}

	return "POLYGON((" + strings.Join(flattened, ", ") + "))", nil
}

// parsePolygonWKT parses POLYGON((lon lat, ...)) into the internal ring.
// Only the exterior ring is read; hole rings after the first close paren are
// ignored.
func parsePolygonWKT(wkt string) (domain.Polygon, error) {
	open := strings.Index(wkt, "((")
	if open < 0 {
		return nil, fmt.Errorf("%w: malformed POLYGON", ErrUnknownFormat)
	}
	rest := wkt[open+2:]
	closing := strings.Index(rest, ")")
	if closing < 0 {
		return nil, fmt.Errorf("%w: unterminated POLYGON ring", ErrUnknownFormat)
	}

	ringText := rest[:closing]
	vertices := strings.Split(ringText, ",")
	ring := make(domain.Polygon, 0, len(vertices))
	for i, vertex := range vertices {
		fields := strings.Fields(strings.TrimSpace(vertex))
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: vertex %d has %d ordinates", ErrInvalidCoordinate, i, len(fields))
		}
		lon, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d longitude %q", ErrInvalidCoordinate, i, fields[0])
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d latitude %q", ErrInvalidCoordinate, i, fields[1])
		}
		ring = append(ring, domain.Point{Lat: lat, Lon: lon})
	}

	if len(ring) == 0 {
		return nil, ErrEmptyRing
	}
	if err := ring.Validate(); err != nil {
		return nil, err
	}
	return ring, nil
}

func prefixOf(value string) string {
	if len(value) > 24 {
		return value[:24]
	}
	return value
}

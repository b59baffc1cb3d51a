package geometry

import (
	"errors"
	"testing"

	"github.com/cityheat/heatadmin/internal/domain"
)

func TestParseGeoJSONPolygonRoundTrip(t *testing.T) {
	raw := `{"type":"Polygon","coordinates":[[[2.35,48.85],[2.36,48.85],[2.36,48.86],[2.35,48.86],[2.35,48.85]]]}`

	ring, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	expected := domain.Polygon{
		{Lat: 48.85, Lon: 2.35},
		{Lat: 48.85, Lon: 2.36},
		{Lat: 48.86, Lon: 2.36},
		{Lat: 48.86, Lon: 2.35},
		{Lat: 48.85, Lon: 2.35},
	}
	if len(ring) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(ring))
	}
	for i, point := range expected {
		if ring[i] != point {
			t.Fatalf("point %d: expected %+v, got %+v", i, point, ring[i])
		}
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("expected closed ring, got first=%+v last=%+v", ring[0], ring[len(ring)-1])
	}
}

func TestParseMultiPolygonZReduction(t *testing.T) {
	raw := "MULTIPOLYGON Z (((2.3 48.8 35.0, 2.4 48.8 35.0, 2.4 48.9 35.0, 2.3 48.8 35.0)))"

	ring, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if len(ring) != 4 {
		t.Fatalf("expected 4 vertices after reduction, got %d", len(ring))
	}
	expected := domain.Polygon{
		{Lat: 48.8, Lon: 2.3},
		{Lat: 48.8, Lon: 2.4},
		{Lat: 48.9, Lon: 2.4},
		{Lat: 48.8, Lon: 2.3},
	}
	for i, point := range expected {
		if ring[i] != point {
			t.Fatalf("point %d: expected %+v, got %+v (Z ordinate must be dropped)", i, point, ring[i])
		}
	}
}

func TestParseMultiPolygonKeepsFirstRingOnly(t *testing.T) {
	raw := "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0), (0.2 0.2, 0.4 0.2, 0.2 0.2)), ((5 5, 6 5, 6 6, 5 5)))"

	ring, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(ring) != 4 {
		t.Fatalf("expected only the first exterior ring (4 points), got %d", len(ring))
	}
	if ring[0] != (domain.Point{Lat: 0, Lon: 0}) {
		t.Fatalf("unexpected first point %+v", ring[0])
	}
}

func TestParsePolygonWKT(t *testing.T) {
	raw := "POLYGON((2.35 48.85, 2.36 48.85, 2.36 48.86, 2.35 48.85))"

	ring, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(ring) != 4 {
		t.Fatalf("expected 4 points, got %d", len(ring))
	}
	if ring[1] != (domain.Point{Lat: 48.85, Lon: 2.36}) {
		t.Fatalf("expected (lat,lon) ordering, got %+v", ring[1])
	}
}

func TestParseUnknownFormat(t *testing.T) {
	for _, raw := range []string{"", "   ", "LINESTRING(0 0, 1 1)", "not a geometry"} {
		if _, err := Parse(raw); !errors.Is(err, ErrUnknownFormat) {
			t.Fatalf("input %q: expected ErrUnknownFormat, got %v", raw, err)
		}
	}
}

func TestParseGeoJSONWrongType(t *testing.T) {
	_, err := Parse(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseGeoJSONInvalidCoordinates(t *testing.T) {
	cases := map[string]string{
		"short pair":    `{"type":"Polygon","coordinates":[[[2.35],[2.36,48.85],[2.36,48.86],[2.35]]]}`,
		"non-array":     `{"type":"Polygon","coordinates":[[[2.35,48.85],"oops",[2.36,48.86],[2.35,48.85]]]}`,
		"non-numeric":   `{"type":"Polygon","coordinates":[[["a","b"],[2.36,48.85],[2.36,48.86],[2.35,48.85]]]}`,
		"ring not list": `{"type":"Polygon","coordinates":[42]}`,
	}
	for name, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("%s: expected ErrInvalidCoordinate, got %v", name, err)
		}
	}
}

func TestParseRejectsOpenRing(t *testing.T) {
	_, err := Parse("POLYGON((0 0, 1 0, 1 1, 0 1))")
	if !errors.Is(err, domain.ErrRingNotClosed) {
		t.Fatalf("expected ErrRingNotClosed, got %v", err)
	}
}

func TestParseRejectsShortRing(t *testing.T) {
	_, err := Parse("POLYGON((0 0, 1 1, 0 0))")
	if !errors.Is(err, domain.ErrRingTooShort) {
		t.Fatalf("expected ErrRingTooShort, got %v", err)
	}
}

func TestParseMultiPolygonInvalidVertex(t *testing.T) {
	_, err := Parse("MULTIPOLYGON Z (((2.3, 2.4 48.8 35.0, 2.4 48.9 35.0, 2.3 48.8 35.0)))")
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

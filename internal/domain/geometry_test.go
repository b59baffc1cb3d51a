package domain

import (
	"errors"
	"testing"
)

func closedRing() Polygon {
	return Polygon{
		{Lat: 48.85, Lon: 2.35},
		{Lat: 48.85, Lon: 2.36},
		{Lat: 48.86, Lon: 2.36},
		{Lat: 48.85, Lon: 2.35},
	}
}

func TestPolygonValidate(t *testing.T) {
	if err := closedRing().Validate(); err != nil {
		t.Fatalf("closed ring must validate: %v", err)
	}

	open := closedRing()
	open[len(open)-1] = Point{Lat: 48.9, Lon: 2.4}
	if err := open.Validate(); !errors.Is(err, ErrRingNotClosed) {
		t.Fatalf("expected ErrRingNotClosed, got %v", err)
	}

	short := Polygon{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}, {Lat: 1, Lon: 2}}
	if err := short.Validate(); !errors.Is(err, ErrRingTooShort) {
		t.Fatalf("expected ErrRingTooShort, got %v", err)
	}
}

func TestPolygonJSONBRoundTrip(t *testing.T) {
	ring := closedRing()

	data, err := ring.ToJSONB()
	if err != nil {
		t.Fatalf("ToJSONB: %v", err)
	}
	// Points serialize as [lat, lon] pairs.
	want := `[[48.85,2.35],[48.85,2.36],[48.86,2.36],[48.85,2.35]]`
	if string(data) != want {
		t.Fatalf("unexpected encoding: %s", data)
	}

	decoded, err := PolygonFromJSONB(data)
	if err != nil {
		t.Fatalf("PolygonFromJSONB: %v", err)
	}
	if len(decoded) != len(ring) || decoded[0] != ring[0] || decoded[2] != ring[2] {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestPolygonFromJSONBEmpty(t *testing.T) {
	decoded, err := PolygonFromJSONB(nil)
	if err != nil || decoded != nil {
		t.Fatalf("empty storage value must decode to nil, got %+v, %v", decoded, err)
	}
}

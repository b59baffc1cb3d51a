package ingestion

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestDetectFormatExplicitWins(t *testing.T) {
	// Explicit formats are returned verbatim, no sniffing, no file access.
	if got := DetectFormat("/nonexistent/file.csv", FormatGeoJSON); got != FormatGeoJSON {
		t.Fatalf("expected explicit geojson, got %q", got)
	}
	if got := DetectFormat("/nonexistent/file.json", FormatCSV); got != FormatCSV {
		t.Fatalf("expected explicit csv, got %q", got)
	}
}

func TestDetectFormatByExtension(t *testing.T) {
	cases := map[string]Format{
		"data.csv":     FormatCSV,
		"data.CSV":     FormatCSV,
		"data.json":    FormatGeoJSON,
		"data.geojson": FormatGeoJSON,
		"data.xlsx":    FormatXLSX,
	}
	for name, expected := range cases {
		if got := DetectFormat(name, FormatAuto); got != expected {
			t.Fatalf("%s: expected %q, got %q", name, expected, got)
		}
	}
}

func TestDetectFormatSniffsFeatureCollection(t *testing.T) {
	compact := writeTempFile(t, "data.dat", `{"type":"FeatureCollection","features":[]}`)
	if got := DetectFormat(compact, FormatAuto); got != FormatGeoJSON {
		t.Fatalf("compact spacing: expected geojson, got %q", got)
	}

	spaced := writeTempFile(t, "data2.dat", `{"type": "FeatureCollection", "features": []}`)
	if got := DetectFormat(spaced, FormatAuto); got != FormatGeoJSON {
		t.Fatalf("spaced variant: expected geojson, got %q", got)
	}
}

func TestDetectFormatUnknown(t *testing.T) {
	path := writeTempFile(t, "data.dat", "gid;geometry\n1;POINT(0 0)\n")
	if got := DetectFormat(path, FormatAuto); got != FormatUnknown {
		t.Fatalf("expected unknown, got %q", got)
	}

	if got := DetectFormat("/nonexistent/file.dat", FormatAuto); got != FormatUnknown {
		t.Fatalf("missing file: expected unknown, got %q", got)
	}
}

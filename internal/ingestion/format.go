package ingestion

import (
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported source file format.
type Format string

const (
	// FormatAuto asks the detector to resolve the format itself.
	FormatAuto Format = "auto"
	// FormatCSV is a comma separated tabular file with a header row.
	FormatCSV Format = "csv"
	// FormatGeoJSON is a FeatureCollection with Polygon features.
	FormatGeoJSON Format = "geojson"
	// FormatXLSX is a spreadsheet read like a CSV (first sheet, header row).
	FormatXLSX Format = "xlsx"
	// FormatUnknown means detection failed; the pipeline treats this as a
	// fatal configuration error.
	FormatUnknown Format = ""
)

// sniffLimit bounds how much of the file content sniffing reads.
const sniffLimit = 1000

// DetectFormat resolves the source format from an explicit choice, the file
// extension, or a content sniff, in that order. An explicit non-auto format
// is returned verbatim without touching the file.
func DetectFormat(path string, explicit Format) Format {
	if explicit != "" && explicit != FormatAuto {
		return explicit
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json", ".geojson":
		return FormatGeoJSON
	case ".xlsx":
		return FormatXLSX
	}

	return sniffFormat(path)
}

func sniffFormat(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer f.Close()

	head := make([]byte, sniffLimit)
	n, _ := f.Read(head)
	content := string(head[:n])

	if strings.Contains(content, `"type":"FeatureCollection"`) ||
		strings.Contains(content, `"type": "FeatureCollection"`) {
		return FormatGeoJSON
	}

	return FormatUnknown
}

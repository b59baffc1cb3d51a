package ingestion

import (
	"strings"
	"testing"

	"github.com/cityheat/heatadmin/internal/domain"
)

func validRecord() domain.RawRecord {
	return domain.RawRecord{
		Row:            2,
		GID:            "building-001",
		Geometry:       "POLYGON((0 0, 1 0, 1 1, 0 0))",
		Classification: "residential",
	}
}

func fieldErrorFor(errs []FieldError, field string) *FieldError {
	for i := range errs {
		if errs[i].Field == field {
			return &errs[i]
		}
	}
	return nil
}

func TestValidateRecordAcceptsMinimalRecord(t *testing.T) {
	if errs := ValidateRecord(validRecord(), true); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateRecordRequiresGID(t *testing.T) {
	record := validRecord()
	record.GID = ""
	errs := ValidateRecord(record, true)
	if fieldErrorFor(errs, "gid") == nil {
		t.Fatalf("expected gid error, got %v", errs)
	}
}

func TestValidateRecordBuildingIDSatisfiesGID(t *testing.T) {
	record := validRecord()
	record.GID = ""
	record.BuildingID = "alt-42"
	if errs := ValidateRecord(record, true); len(errs) != 0 {
		t.Fatalf("expected building_id to satisfy the identity requirement, got %v", errs)
	}
}

func TestValidateRecordGIDLength(t *testing.T) {
	record := validRecord()
	record.GID = strings.Repeat("x", 256)
	if fieldErrorFor(ValidateRecord(record, true), "gid") == nil {
		t.Fatalf("expected gid length error")
	}

	record.GID = strings.Repeat("x", 255)
	if errs := ValidateRecord(record, true); len(errs) != 0 {
		t.Fatalf("255 chars must be accepted, got %v", errs)
	}
}

func TestValidateRecordRequiresClassification(t *testing.T) {
	record := validRecord()
	record.Classification = ""
	if fieldErrorFor(ValidateRecord(record, true), "building_type_classification") == nil {
		t.Fatalf("expected classification error")
	}

	record.Classification = strings.Repeat("c", 101)
	if fieldErrorFor(ValidateRecord(record, true), "building_type_classification") == nil {
		t.Fatalf("expected classification length error")
	}
}

func TestValidateRecordGeometryRequirementDependsOnSource(t *testing.T) {
	record := validRecord()
	record.Geometry = ""

	if fieldErrorFor(ValidateRecord(record, true), "geometry") == nil {
		t.Fatalf("tabular sources must require the geometry column")
	}
	if errs := ValidateRecord(record, false); len(errs) != 0 {
		t.Fatalf("geojson records supply geometry out-of-band, got %v", errs)
	}
}

func TestValidateRecordNumericFields(t *testing.T) {
	record := validRecord()
	record.AverageHeatloss = "12.5"
	record.Threshold = "not-a-number"

	errs := ValidateRecord(record, true)
	if fieldErrorFor(errs, "average_heatloss") != nil {
		t.Fatalf("valid numeric must not error: %v", errs)
	}
	if fieldErrorFor(errs, "threshold") == nil {
		t.Fatalf("expected threshold error, got %v", errs)
	}
}

func TestValidateRecordConfidenceBoundary(t *testing.T) {
	record := validRecord()

	record.Confidence = "1.0"
	if errs := ValidateRecord(record, true); len(errs) != 0 {
		t.Fatalf("confidence 1.0 must be accepted, got %v", errs)
	}

	record.Confidence = "1.0001"
	if fieldErrorFor(ValidateRecord(record, true), "confidence") == nil {
		t.Fatalf("confidence 1.0001 must be rejected")
	}

	record.Confidence = "-0.1"
	if fieldErrorFor(ValidateRecord(record, true), "confidence") == nil {
		t.Fatalf("negative confidence must be rejected")
	}

	record.Confidence = ""
	if errs := ValidateRecord(record, true); len(errs) != 0 {
		t.Fatalf("absent confidence must be accepted, got %v", errs)
	}
}

func TestValidateRecordAnomalyNeverErrors(t *testing.T) {
	record := validRecord()
	for _, token := range []string{"true", "YES", "y", "1", "0", "no", "banana", ""} {
		record.IsAnomaly = token
		if errs := ValidateRecord(record, true); len(errs) != 0 {
			t.Fatalf("is_anomaly %q must never error, got %v", token, errs)
		}
	}
}

func TestValidateRecordCollectsAllErrors(t *testing.T) {
	record := domain.RawRecord{Row: 2}
	errs := ValidateRecord(record, true)
	if len(errs) < 3 {
		t.Fatalf("expected gid, classification and geometry errors, got %v", errs)
	}
}

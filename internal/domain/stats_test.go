package domain

import "testing"

func TestStatsMergeFoldsBatchResults(t *testing.T) {
	stats := IngestionStats{}
	for i := 0; i < 3; i++ {
		stats = stats.WithProcessed()
	}
	stats = stats.Merge(BatchResult{Created: 2, Updated: 1})
	stats = stats.WithProcessed().WithRowError()

	want := IngestionStats{Processed: 4, Created: 2, Updated: 1, Errors: 1}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if err := stats.CheckInvariant(); err != nil {
		t.Fatalf("invariant must hold: %v", err)
	}
}

func TestStatsInvariantViolation(t *testing.T) {
	stats := IngestionStats{Processed: 3, Created: 1}
	if err := stats.CheckInvariant(); err == nil {
		t.Fatalf("expected invariant violation")
	}
}

func TestStatsString(t *testing.T) {
	stats := IngestionStats{Processed: 2, Created: 1, Errors: 1}
	got := stats.String()
	want := "processed=2 created=1 updated=0 skipped=0 errors=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

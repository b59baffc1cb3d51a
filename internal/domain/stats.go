package domain

import "fmt"

// IngestionStats accumulates counters for one pipeline run. Stats are folded
// from per-batch results rather than mutated through a shared accumulator, so
// each pipeline transition is a pure function of (previous stats, batch
// result).
type IngestionStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// BatchResult reports the outcome of applying one batch to the store.
type BatchResult struct {
	Created int
	Updated int
	Skipped int
	Errors  int
}

// Merge folds one batch result into the stats, returning the new value.
// Processed is tracked at intake, not per batch.
func (s IngestionStats) Merge(r BatchResult) IngestionStats {
	s.Created += r.Created
	s.Updated += r.Updated
	s.Skipped += r.Skipped
	s.Errors += r.Errors
	return s
}

// WithRowError records one row-level failure.
func (s IngestionStats) WithRowError() IngestionStats {
	s.Errors++
	return s
}

// WithProcessed records one intaken row.
func (s IngestionStats) WithProcessed() IngestionStats {
	s.Processed++
	return s
}

// CheckInvariant verifies processed == created + updated + skipped + errors.
func (s IngestionStats) CheckInvariant() error {
	accounted := s.Created + s.Updated + s.Skipped + s.Errors
	if s.Processed != accounted {
		return fmt.Errorf("ingestion stats invariant violated: processed=%d but created+updated+skipped+errors=%d", s.Processed, accounted)
	}
	return nil
}

func (s IngestionStats) String() string {
	return fmt.Sprintf("processed=%d created=%d updated=%d skipped=%d errors=%d",
		s.Processed, s.Created, s.Updated, s.Skipped, s.Errors)
}

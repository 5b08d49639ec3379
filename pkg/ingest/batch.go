// pkg/ingest/batch.go
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceResult represents the outcome of one source within a batch
type SourceResult struct {
	SourceID    string
	Skipped     bool
	SkipReason  string
	RowsRead    int
	RowsEmitted int
	Dropped     map[string]int
}

// BatchResult represents the result of one ingestion run
type BatchResult struct {
	BatchID            string
	State              State
	Stages             []State
	Success            bool
	Sources            []SourceResult
	RowsRead           int
	RowsEmitted        int
	RowsOutsideWindow  int
	RowsDeduplicated   int
	RowsPersisted      int64
	CleaningOperations int
	Errors             []ErrorRecord
	Warnings           []string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewBatchResult initializes a batch result stamped with the run time
func NewBatchResult(startedAt time.Time) *BatchResult {
	return &BatchResult{
		BatchID:   uuid.New().String(),
		State:     StateIdle,
		StartTime: startedAt,
		Sources:   make([]SourceResult, 0),
		Errors:    make([]ErrorRecord, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the batch as complete and calculates duration
func (r *BatchResult) Complete(success bool, endedAt time.Time) {
	r.EndTime = endedAt
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddError adds an error to the result
func (r *BatchResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the result
func (r *BatchResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// AddSourceResult incorporates a processed source
func (r *BatchResult) AddSourceResult(res SourceResult) {
	r.Sources = append(r.Sources, res)
	r.RowsRead += res.RowsRead
	r.RowsEmitted += res.RowsEmitted
}

// MarkSkipped records a source that contributed nothing to the batch
func (r *BatchResult) MarkSkipped(sourceID string, reason error) {
	r.Sources = append(r.Sources, SourceResult{
		SourceID:   sourceID,
		Skipped:    true,
		SkipReason: reason.Error(),
	})
	r.AddWarning(fmt.Sprintf("source %s skipped: %v", sourceID, reason))
}

// SkippedSources returns the ids of skipped sources
func (r *BatchResult) SkippedSources() []string {
	var ids []string
	for _, s := range r.Sources {
		if s.Skipped {
			ids = append(ids, s.SourceID)
		}
	}
	return ids
}

// RowsDropped totals the rows discarded during transformation
func (r *BatchResult) RowsDropped() int {
	total := 0
	for _, s := range r.Sources {
		for _, n := range s.Dropped {
			total += n
		}
	}
	return total
}

// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single normalization applied during ingestion
type CleaningOperation struct {
	BatchID           string      // Ingestion batch that produced the operation
	SourceID          string      // Source file or table
	RowHash           string      // Business key hash of the affected row (set after dedup)
	RowNumber         int         // Zero-based data row index in the source
	ColumnName        string      // Canonical field that was cleaned
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning
	CleaningOperation string      // Type of cleaning performed (e.g., "sentinel_override")
	CleaningReason    string      // Reason for cleaning (e.g., "end_clock_01_00")
	CleanedAt         time.Time   // When the cleaning occurred (set by database)
}

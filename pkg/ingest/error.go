// pkg/ingest/error.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/columns"
)

var (
	// ErrBatchInProgress is returned when a run is requested while another is active
	ErrBatchInProgress = errors.New("ingestion batch already in progress")
	// ErrNoSources is returned when there is nothing to read
	ErrNoSources = errors.New("no sources configured")
	// ErrEmptyBatch is returned when no activity survives transformation
	ErrEmptyBatch = errors.New("ingestion produced an empty batch")
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionSkipSource indicates the current source should be skipped
	ActionSkipSource
	// ActionAbort indicates the entire batch should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during ingestion
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategorySourceLevel
	ErrorCategoryPersistence
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategorySourceLevel:
		return "SourceLevel"
	case ErrorCategoryPersistence:
		return "Persistence"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during ingestion
type ErrorRecord struct {
	Category    ErrorCategory
	SourceID    string
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   time.Now(),
		Recoverable: category < ErrorCategoryPersistence,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithSource adds source information to the error record
func (r ErrorRecord) WithSource(sourceID string) ErrorRecord {
	r.SourceID = sourceID
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.SourceID != "" {
		sb.WriteString(fmt.Sprintf("Source: %s ", r.SourceID))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// ErrorHandler manages error handling during ingestion
type ErrorHandler struct {
	logger      *zap.Logger
	errorCounts map[ErrorCategory]int
	mu          sync.Mutex
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:      logger,
		errorCounts: make(map[ErrorCategory]int),
	}
}

// CategorizeError determines the category of an error raised while reading
// or preparing a source
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var missing *columns.MissingError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryCritical
	case errors.As(err, &missing):
		return ErrorCategorySourceLevel
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrNoSources):
		return ErrorCategoryCritical
	default:
		return ErrorCategorySourceLevel
	}
}

// HandleError records an error and determines the action to take
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue
	case ErrorCategorySourceLevel:
		return ActionSkipSource
	default:
		return ActionAbort
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	if eh.logger == nil {
		return
	}

	logLevel := zap.InfoLevel
	switch record.Category {
	case ErrorCategoryWarning, ErrorCategorySourceLevel:
		logLevel = zap.WarnLevel
	case ErrorCategoryPersistence, ErrorCategoryCritical:
		logLevel = zap.ErrorLevel
	}

	eh.logger.Log(logLevel, "Ingestion error",
		zap.String("category", record.Category.String()),
		zap.String("source", record.SourceID),
		zap.String("error", record.Message),
		zap.Bool("recoverable", record.Recoverable))
}

// GetErrorSummary returns a copy of the error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

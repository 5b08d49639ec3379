// pkg/converter/converter.go
package converter

import (
	"time"

	"go.uber.org/zap"
)

// DefaultTimezone is the zone the schedule spreadsheets are written in
const DefaultTimezone = "America/Sao_Paulo"

// CellConverter coerces untyped spreadsheet cells into typed values
type CellConverter struct {
	logger *zap.Logger
	// Configuration options
	config CellConverterConfig
}

// CellConverterConfig provides configuration options for cell conversion
type CellConverterConfig struct {
	// Zone used to anchor dates and clocks
	Location *time.Location
	// Whether to treat blank strings as NULL
	EmptyStringAsNull bool
	// Extra string tokens that mean "no value"
	NullTokens []string
}

// DefaultConfig returns the default configuration
func DefaultConfig() CellConverterConfig {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return CellConverterConfig{
		Location:          loc,
		EmptyStringAsNull: true,
		NullTokens:        []string{"-", "--", "nan", "NaN", "NaT"},
	}
}

// NewCellConverter creates a CellConverter with default configuration
func NewCellConverter(logger *zap.Logger) *CellConverter {
	return NewCellConverterWithConfig(logger, DefaultConfig())
}

// NewCellConverterWithConfig creates a CellConverter with custom configuration
func NewCellConverterWithConfig(logger *zap.Logger, config CellConverterConfig) *CellConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = DefaultConfig().Location
	}
	return &CellConverter{
		logger: logger,
		config: config,
	}
}

// Location returns the zone dates and clocks are anchored in
func (c *CellConverter) Location() *time.Location {
	return c.config.Location
}

// Text returns the trimmed string form of a cell, "" for null cells
func (c *CellConverter) Text(v any) string {
	if c.isNull(v) {
		return ""
	}
	s, err := convertToText(v)
	if err != nil {
		c.logger.Debug("Cell not convertible to text", zap.Any("value", v), zap.Error(err))
		return ""
	}
	return s
}

// Float returns the numeric value of a cell or nil
func (c *CellConverter) Float(v any) *float64 {
	if c.isNull(v) {
		return nil
	}
	f, err := convertToFloat(v)
	if err != nil {
		c.logger.Debug("Cell not numeric", zap.Any("value", v), zap.Error(err))
		return nil
	}
	return &f
}

// Date returns the calendar date of a cell at local midnight
func (c *CellConverter) Date(v any) (time.Time, bool) {
	if c.isNull(v) {
		return time.Time{}, false
	}
	return ParseDate(v, c.config.Location)
}

// Clock returns the time of day held by a cell
func (c *CellConverter) Clock(v any) (time.Duration, bool) {
	if c.isNull(v) {
		return 0, false
	}
	return ParseClock(v)
}

// Span returns the elapsed duration held by a cell
func (c *CellConverter) Span(v any) (time.Duration, bool) {
	if c.isNull(v) {
		return 0, false
	}
	return ParseSpan(v)
}

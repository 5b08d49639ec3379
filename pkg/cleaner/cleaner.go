// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"

	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// ModernizationUnit is the management unit assigned to modernization crews
const ModernizationUnit = "MODERNIZAÇÃO"

// DefaultModernizationAssets lists the crews whose activities belong to the
// modernization program regardless of the unit typed in the sheet
var DefaultModernizationAssets = []string{
	"MODERNIZAÇÃOTURMA2", "MODERNIZAÇÃOLASTRO2", "MOD ZYQ ZWI", "MOD ZWU ZDC",
	"MODERNIZAÇÃO TURMA 2", "MOD ZDG PAT", "MOD ZRB ZEV", "MOD ZEM",
	"MOD SPN", "MODERNIZAÇÃO ZGP", "MODERNIZAÇÃO SERRA", "MOD ZGP", "MOD FN",
}

// DataCleaner normalizes activity dimensions during ingestion
type DataCleaner struct {
	logger              *zap.Logger
	modernizationAssets map[string]struct{}
}

// Option configures a DataCleaner
type Option func(*DataCleaner)

// WithModernizationAssets replaces the modernization asset list
func WithModernizationAssets(assets []string) Option {
	return func(c *DataCleaner) {
		c.modernizationAssets = make(map[string]struct{}, len(assets))
		for _, a := range assets {
			c.modernizationAssets[normalizeDimension(a)] = struct{}{}
		}
	}
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, opts ...Option) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cleaner := &DataCleaner{logger: logger}
	WithModernizationAssets(DefaultModernizationAssets)(cleaner)
	for _, opt := range opts {
		opt(cleaner)
	}

	return cleaner, nil
}

// CleanActivities normalizes every activity in place and returns the
// cleaning operations performed
func (c *DataCleaner) CleanActivities(activities []model.Activity) []model.CleaningOperation {
	var allOperations []model.CleaningOperation

	for i := range activities {
		allOperations = append(allOperations, c.cleanSingleActivity(&activities[i])...)
	}

	if len(allOperations) > 0 {
		c.logger.Debug("Cleaned activities",
			zap.Int("activities", len(activities)),
			zap.Int("operations", len(allOperations)))
	}

	return allOperations
}

// cleanSingleActivity trims and uppercases dimensions, then applies the
// modernization reassignment
func (c *DataCleaner) cleanSingleActivity(a *model.Activity) []model.CleaningOperation {
	var operations []model.CleaningOperation

	for _, dim := range []struct {
		column string
		value  *string
	}{
		{"asset", &a.Asset},
		{"activity_type", &a.ActivityType},
		{"schedule_kind", &a.ScheduleKind},
		{"management_unit", &a.ManagementUnit},
		{"section", &a.Section},
		{"sub_section", &a.SubSection},
	} {
		if op := standardizeDimension(a, dim.column, dim.value); op != nil {
			operations = append(operations, *op)
		}
	}

	if _, ok := c.modernizationAssets[a.Asset]; ok && a.ManagementUnit != ModernizationUnit {
		operations = append(operations, newOperation(a, "management_unit", a.ManagementUnit, ModernizationUnit,
			"unit_reassignment", "modernization_asset"))
		a.ManagementUnit = ModernizationUnit
	}

	return operations
}

// pkg/cleaner/operations.go
package cleaner

import (
	"strings"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// normalizeDimension trims, collapses inner whitespace and uppercases
func normalizeDimension(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// standardizeDimension normalizes one dimension in place, returning the
// operation when the value changed
func standardizeDimension(a *model.Activity, column string, value *string) *model.CleaningOperation {
	cleaned := normalizeDimension(*value)
	if cleaned == *value {
		return nil
	}

	op := newOperation(a, column, *value, cleaned, "dimension_normalization", reasonFor(*value, cleaned))
	*value = cleaned
	return &op
}

func reasonFor(original, cleaned string) string {
	if strings.TrimSpace(original) != original || strings.Join(strings.Fields(original), " ") != strings.TrimSpace(original) {
		if strings.ToUpper(original) == original {
			return "whitespace"
		}
		return "whitespace_and_case"
	}
	return "case"
}

func newOperation(a *model.Activity, column string, original interface{}, newValue, operation, reason string) model.CleaningOperation {
	return model.CleaningOperation{
		SourceID:          a.SourceID,
		RowNumber:         a.SourceRow,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		CleaningOperation: operation,
		CleaningReason:    reason,
	}
}

package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

func newCleaner(t *testing.T, opts ...Option) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func activity(asset, unit, clock string, row int) model.Activity {
	return model.Activity{
		SourceID:          "a.xlsx",
		SourceRow:         row,
		Asset:             asset,
		ActivityType:      "weld",
		ManagementUnit:    unit,
		ActivityDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SourceActualClock: clock,
	}
}

func TestNewDataCleanerRequiresLogger(t *testing.T) {
	_, err := NewDataCleaner(nil)
	assert.Error(t, err)
}

func TestCleanActivitiesNormalizesDimensions(t *testing.T) {
	acts := []model.Activity{activity("  v12 ", "gv  sul", "08:00", 0)}

	ops := newCleaner(t).CleanActivities(acts)

	assert.Equal(t, "V12", acts[0].Asset)
	assert.Equal(t, "WELD", acts[0].ActivityType)
	assert.Equal(t, "GV SUL", acts[0].ManagementUnit)
	require.Len(t, ops, 3)
	assert.Equal(t, "asset", ops[0].ColumnName)
	assert.Equal(t, "  v12 ", ops[0].OriginalValue)
	assert.Equal(t, "whitespace_and_case", ops[0].CleaningReason)
	assert.Equal(t, "case", ops[1].CleaningReason)
}

func TestCleanActivitiesUntouchedRowHasNoOperations(t *testing.T) {
	acts := []model.Activity{activity("V12", "GV SUL", "08:00", 0)}
	acts[0].ActivityType = "WELD"

	assert.Empty(t, newCleaner(t).CleanActivities(acts))
}

func TestModernizationReassignment(t *testing.T) {
	acts := []model.Activity{
		activity("Mod zem", "GV NORTE", "", 0),
		activity("ModernizaçãoTURMA2", "", "", 1),
		activity("V12", "GV NORTE", "", 2),
	}

	ops := newCleaner(t).CleanActivities(acts)

	assert.Equal(t, ModernizationUnit, acts[0].ManagementUnit)
	assert.Equal(t, ModernizationUnit, acts[1].ManagementUnit)
	assert.Equal(t, "GV NORTE", acts[2].ManagementUnit)

	var reassigned int
	for _, op := range ops {
		if op.CleaningOperation == "unit_reassignment" {
			reassigned++
		}
	}
	assert.Equal(t, 2, reassigned)
}

func TestModernizationAssetsOverride(t *testing.T) {
	acts := []model.Activity{activity("MOD ZEM", "GV NORTE", "", 0)}

	newCleaner(t, WithModernizationAssets([]string{"other"})).CleanActivities(acts)

	assert.Equal(t, "GV NORTE", acts[0].ManagementUnit)
}

func TestRowHashIsPureFunctionOfBusinessKey(t *testing.T) {
	a := activity("V12", "GV SUL", "08:00", 0)
	b := activity("V12", "GV SUL", "08:00", 7)
	b.SourceID = "b.xlsx"
	b.DetailMessage = "different"

	assert.Equal(t, RowHash(&a), RowHash(&b))
	assert.Len(t, RowHash(&a), 32)

	c := activity("V12", "GV SUL", "08:01", 0)
	assert.NotEqual(t, RowHash(&a), RowHash(&c))
	assert.Equal(t, "V12|weld|2024-01-01|08:00|GV SUL", BusinessKey(&a))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	first := activity("V12", "GV SUL", "08:00", 0)
	first.DetailMessage = "first"
	dup := activity("V12", "GV SUL", "08:00", 1)
	dup.DetailMessage = "second"
	other := activity("V13", "GV SUL", "08:00", 2)

	kept, dropped := Dedupe([]model.Activity{first, dup, other})

	require.Len(t, kept, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "first", kept[0].DetailMessage)
	assert.Equal(t, "V13", kept[1].Asset)
	assert.NotEmpty(t, kept[0].RowHash)

	again, dropped := Dedupe(kept)
	assert.Equal(t, kept, again)
	assert.Zero(t, dropped)
}

func TestAttachRowHashes(t *testing.T) {
	kept, _ := Dedupe([]model.Activity{
		activity("V12", "GV SUL", "08:00", 0),
		activity("V12", "GV SUL", "08:00", 1),
	})
	ops := []model.CleaningOperation{
		{SourceID: "a.xlsx", RowNumber: 0, ColumnName: "asset"},
		{SourceID: "a.xlsx", RowNumber: 1, ColumnName: "asset"},
	}

	out := AttachRowHashes(ops, kept)

	require.Len(t, out, 1)
	assert.Equal(t, kept[0].RowHash, out[0].RowHash)
}

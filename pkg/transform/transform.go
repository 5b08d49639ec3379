// pkg/transform/transform.go

// Package transform turns resolved source rows into canonical activities.
package transform

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/columns"
	"github.com/EricBinekS/StatusDiario/pkg/converter"
	"github.com/EricBinekS/StatusDiario/pkg/model"
	"github.com/EricBinekS/StatusDiario/pkg/status"
)

var locationSeparator = regexp.MustCompile(`[/\\]`)

// Drop reasons reported in Stats
const (
	DropMissingAsset = "missing_asset"
	DropInvalidDate  = "invalid_date"
	DropBlankRow     = "blank_row"
)

// Stats summarizes one table transformation
type Stats struct {
	RowsRead    int
	RowsEmitted int
	Dropped     map[string]int
}

// Transformer builds activities from source rows
type Transformer struct {
	conv       *converter.CellConverter
	logger     *zap.Logger
	cutoffHour int
}

// NewTransformer creates a Transformer
func NewTransformer(conv *converter.CellConverter, logger *zap.Logger, cutoffHour int) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cutoffHour < 0 || cutoffHour > 23 {
		cutoffHour = DefaultCutoffHour
	}
	return &Transformer{conv: conv, logger: logger, cutoffHour: cutoffHour}
}

// TransformTable converts every usable row of a resolved table. Rows without
// an asset or a readable activity date are dropped and counted; every other
// cell degrades to null when it cannot be read.
func (t *Transformer) TransformTable(
	table *model.SourceTable,
	res *columns.Resolution,
	now time.Time,
) ([]model.Activity, []model.CleaningOperation, Stats) {
	stats := Stats{RowsRead: table.RowCount(), Dropped: make(map[string]int)}
	activities := make([]model.Activity, 0, table.RowCount())
	var ops []model.CleaningOperation

	for i, row := range table.Rows {
		if model.IsBlankRow(row) {
			stats.Dropped[DropBlankRow]++
			continue
		}

		a, rowOps, reason := t.transformRow(table, i, res, now)
		if reason != "" {
			stats.Dropped[reason]++
			continue
		}
		activities = append(activities, a)
		ops = append(ops, rowOps...)
	}

	stats.RowsEmitted = len(activities)
	t.logger.Debug("Transformed source table",
		zap.String("source", table.SourceID),
		zap.Int("rowsRead", stats.RowsRead),
		zap.Int("rowsEmitted", stats.RowsEmitted),
		zap.Any("dropped", stats.Dropped))

	return activities, ops, stats
}

func (t *Transformer) transformRow(
	table *model.SourceTable,
	row int,
	res *columns.Resolution,
	now time.Time,
) (model.Activity, []model.CleaningOperation, string) {
	loc := t.conv.Location()
	cell := func(f columns.Field) any {
		return table.Cell(row, res.Index(f))
	}
	var ops []model.CleaningOperation
	record := func(column string, original any, newValue, operation, reason string) {
		ops = append(ops, model.CleaningOperation{
			SourceID:          table.SourceID,
			RowNumber:         row,
			ColumnName:        column,
			OriginalValue:     original,
			NewValue:          newValue,
			CleaningOperation: operation,
			CleaningReason:    reason,
		})
	}

	asset := t.conv.Text(cell(columns.FieldAsset))
	if asset == "" {
		return model.Activity{}, nil, DropMissingAsset
	}
	date, ok := t.conv.Date(cell(columns.FieldActivityDate))
	if !ok {
		return model.Activity{}, nil, DropInvalidDate
	}

	a := model.Activity{
		SourceID:        table.SourceID,
		SourceRow:       row,
		Asset:           asset,
		ActivityType:    t.conv.Text(cell(columns.FieldActivityType)),
		ScheduleKind:    t.conv.Text(cell(columns.FieldScheduleKind)),
		ManagementUnit:  t.conv.Text(cell(columns.FieldManagementUnit)),
		Section:         t.conv.Text(cell(columns.FieldSection)),
		SubSection:      t.conv.Text(cell(columns.FieldSubSection)),
		PlannedLocation: firstLocation(t.conv.Text(cell(columns.FieldPlannedLocation))),
		ActualLocation:  firstLocation(t.conv.Text(cell(columns.FieldActualLocation))),
		ActivityDate:    date,
		PlannedQuantity: t.conv.Float(cell(columns.FieldPlannedQuantity)),
		ActualQuantity:  t.conv.Float(cell(columns.FieldActualQuantity)),
		RawStatusCode:   status.ParseCode(cell(columns.FieldStatusCode)),
		IngestedAt:      now,
	}

	// Planned window
	if clock, ok := t.conv.Clock(cell(columns.FieldPlannedStart)); ok {
		start := converter.Combine(date, clock, loc)
		a.PlannedStart = &start
	}
	if span, ok := t.conv.Span(cell(columns.FieldPlannedDuration)); ok {
		formatted := converter.FormatHHMM(span)
		a.PlannedDuration = &formatted
		a.PlannedEnd = converter.PlannedEnd(a.PlannedStart, &span)
	}

	// Actual window
	if clock, ok := t.conv.Clock(cell(columns.FieldActualStart)); ok {
		start := converter.Combine(date, clock, loc)
		a.ActualStart = &start
		a.SourceActualClock = converter.FormatHHMM(clock)
	}

	endClock, endColumn, hasEnd := t.firstEnd(table, row, res)
	if hasEnd {
		a.OverrideCode = converter.DetectSentinel(endClock)
	}

	switch {
	case a.OverrideCode != model.OverrideNone:
		original := converter.FormatHHMM(endClock)
		record(string(columns.FieldActualStart), a.SourceActualClock, "", "sentinel_override", "end_"+endColumn+"_"+string(a.OverrideCode))
		record(string(columns.FieldActualEnd), original, "", "sentinel_override", "end_"+endColumn+"_"+string(a.OverrideCode))
		a.ActualStart = nil
		a.ActualEnd = nil
		a.ActualDuration = nil
	case hasEnd && a.ActualStart != nil:
		end := converter.ActualEnd(a.ActualStart, endClock, loc)
		a.ActualEnd = end
		if !converter.Combine(a.ActualStart.In(loc), endClock, loc).Equal(*end) {
			record(string(columns.FieldActualEnd), converter.FormatHHMM(endClock), end.Format(time.RFC3339), "midnight_rollover", "end_before_start")
		}
		formatted := converter.FormatHHMM(end.Sub(*a.ActualStart))
		a.ActualDuration = &formatted
	}

	// Detail message and statuses
	a.DetailMessage = SelectDetailMessage(date,
		t.conv.Text(cell(columns.FieldPreview1)),
		t.conv.Text(cell(columns.FieldPreview2)),
		now, loc, t.cutoffHour)
	status.Apply(&a)

	return a, ops, ""
}

// firstEnd returns the clock of the first populated end column
func (t *Transformer) firstEnd(table *model.SourceTable, row int, res *columns.Resolution) (time.Duration, string, bool) {
	for _, m := range res.Ends {
		if clock, ok := t.conv.Clock(table.Cell(row, m.Index)); ok {
			return clock, m.Column, true
		}
	}
	return 0, "", false
}

// firstLocation keeps the text before the first path separator
func firstLocation(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(locationSeparator.Split(s, 2)[0])
}

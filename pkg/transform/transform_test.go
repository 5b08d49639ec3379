package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/columns"
	"github.com/EricBinekS/StatusDiario/pkg/converter"
	"github.com/EricBinekS/StatusDiario/pkg/model"
)

var brt = time.FixedZone("BRT", -3*60*60)

var header = []any{
	"Ativo", "Atividade", "Programar para D+1", "Gerência da Via", "Data",
	"Inicia", "Duração", "Início", "Fim", "SB", "SB", "Quantidade", "Quantidade",
	"Status", "Prévia - 1", "Prévia - 2",
}

func newTransformer(t *testing.T) *Transformer {
	t.Helper()
	cfg := converter.DefaultConfig()
	cfg.Location = brt
	return NewTransformer(converter.NewCellConverterWithConfig(zap.NewNop(), cfg), zap.NewNop(), DefaultCutoffHour)
}

func resolve(t *testing.T) *columns.Resolution {
	t.Helper()
	res, err := columns.NewDefaultResolver().Resolve(columns.CleanHeaders(header))
	require.NoError(t, err)
	return res
}

func row(asset, date, start, end string) []any {
	return []any{
		asset, "WELD", "CONTRATO", "GV SUL", date,
		"07:00", "02:00", start, end, "KM 10/KM 12", `KM 11\KM 12`, "10", "9.5",
		"2", "Equipe a caminho", "Concluído",
	}
}

func TestTransformTableHappyPath(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Header: header, Rows: [][]any{
		row("V12", "2024-01-01", "08:00", "10:30"),
	}}
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, brt)

	acts, ops, stats := newTransformer(t).TransformTable(table, resolve(t), now)
	require.Len(t, acts, 1)
	assert.Empty(t, ops)
	assert.Equal(t, 1, stats.RowsEmitted)

	a := acts[0]
	assert.Equal(t, "V12", a.Asset)
	assert.Equal(t, "a.xlsx", a.SourceID)
	assert.Equal(t, time.Date(2024, 1, 1, 7, 0, 0, 0, brt), *a.PlannedStart)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, brt), *a.PlannedEnd)
	assert.Equal(t, "02:00", *a.PlannedDuration)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, brt), *a.ActualStart)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, brt), *a.ActualEnd)
	assert.Equal(t, "02:30", *a.ActualDuration)
	assert.Equal(t, "08:00", a.SourceActualClock)
	assert.Equal(t, "KM 10", a.PlannedLocation)
	assert.Equal(t, "KM 11", a.ActualLocation)
	assert.Equal(t, 9.5, *a.ActualQuantity)
	assert.Equal(t, 2, *a.RawStatusCode)
	assert.Equal(t, model.OperationalCompleted, a.OperationalStatus)
	assert.Equal(t, model.ProductionCompleted, a.ProductionStatus)
	assert.Equal(t, "Equipe a caminho", a.DetailMessage)
}

func TestTransformSentinelOverride(t *testing.T) {
	for end, code := range map[string]model.OverrideCode{"01:00": model.OverrideESP, "00:01": model.OverrideBLOCO} {
		t.Run(string(code), func(t *testing.T) {
			table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{row("V12", "2024-01-01", "08:00", end)}}

			acts, ops, _ := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 1, 9, 0, 0, 0, brt))
			require.Len(t, acts, 1)

			a := acts[0]
			assert.Equal(t, code, a.OverrideCode)
			assert.Nil(t, a.ActualStart)
			assert.Nil(t, a.ActualEnd)
			assert.Nil(t, a.ActualDuration)
			assert.Equal(t, "08:00", a.SourceActualClock)
			assert.Equal(t, model.OperationalStatus("Canceled ("+string(code)+")"), a.OperationalStatus)
			assert.Equal(t, model.ProductionCanceled, a.Status)
			require.Len(t, ops, 2)
			assert.Equal(t, "sentinel_override", ops[0].CleaningOperation)
		})
	}
}

func TestTransformSentinelWithoutStart(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{row("V12", "2024-01-01", "", "01:00")}}

	acts, _, _ := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 1, 9, 0, 0, 0, brt))
	require.Len(t, acts, 1)
	assert.Equal(t, model.OverrideESP, acts[0].OverrideCode)
	assert.Equal(t, "", acts[0].SourceActualClock)
}

func TestTransformEndWithoutStartLeavesActualWindowOpen(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{row("V12", "2024-01-01", "", "10:30")}}
	table.Rows[0][13] = nil

	acts, ops, _ := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 1, 11, 0, 0, 0, brt))
	require.Len(t, acts, 1)
	assert.Nil(t, acts[0].ActualStart)
	assert.Nil(t, acts[0].ActualEnd)
	assert.Nil(t, acts[0].ActualDuration)
	assert.Equal(t, model.OverrideNone, acts[0].OverrideCode)
	assert.Equal(t, model.OperationalScheduled, acts[0].OperationalStatus)
	assert.Empty(t, ops)
}

func TestTransformMidnightCrossingHeuristic(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{row("V12", "2024-01-01", "22:00", "02:00")}}

	acts, ops, _ := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 2, 9, 0, 0, 0, brt))
	require.Len(t, acts, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 2, 0, 0, 0, brt), *acts[0].ActualEnd)
	assert.Equal(t, "04:00", *acts[0].ActualDuration)
	require.Len(t, ops, 1)
	assert.Equal(t, "midnight_rollover", ops[0].CleaningOperation)
}

func TestTransformInProgressAndScheduled(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{
		row("V12", "2024-01-01", "08:00", ""),
		row("V13", "2024-01-01", "", ""),
	}}
	table.Rows[0][13] = nil
	table.Rows[1][13] = nil

	acts, _, _ := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 1, 9, 0, 0, 0, brt))
	require.Len(t, acts, 2)
	assert.Equal(t, model.OperationalInProgress, acts[0].OperationalStatus)
	assert.Nil(t, acts[0].ActualDuration)
	assert.Equal(t, model.ProductionInProgress, acts[0].Status)
	assert.Equal(t, model.OperationalScheduled, acts[1].OperationalStatus)
	assert.Equal(t, model.ProductionNotStarted, acts[1].Status)
}

func TestTransformDropsUnusableRows(t *testing.T) {
	table := &model.SourceTable{SourceID: "a.xlsx", Rows: [][]any{
		row("", "2024-01-01", "08:00", "09:00"),
		row("V12", "not a date", "08:00", "09:00"),
		{nil, "  ", nil},
		row("V12", "2024-01-01", "bad", "worse"),
	}}

	acts, _, stats := newTransformer(t).TransformTable(table, resolve(t), time.Date(2024, 1, 1, 9, 0, 0, 0, brt))
	require.Len(t, acts, 1)
	assert.Nil(t, acts[0].ActualStart)
	assert.Nil(t, acts[0].ActualEnd)
	assert.Equal(t, 1, stats.Dropped[DropMissingAsset])
	assert.Equal(t, 1, stats.Dropped[DropInvalidDate])
	assert.Equal(t, 1, stats.Dropped[DropBlankRow])
	assert.Equal(t, 4, stats.RowsRead)
}

func TestSelectDetailMessageCutoff(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, brt)

	cases := []struct {
		name     string
		now      time.Time
		preview2 string
		want     string
	}{
		{"before cutoff", time.Date(2024, 1, 1, 11, 59, 0, 0, brt), "B", "A"},
		{"at cutoff", time.Date(2024, 1, 1, 12, 0, 0, 0, brt), "B", "B"},
		{"after cutoff blank second", time.Date(2024, 1, 1, 12, 1, 0, 0, brt), "", "A"},
		{"previous day", time.Date(2023, 12, 31, 18, 0, 0, 0, brt), "B", "A"},
		{"next day", time.Date(2024, 1, 2, 8, 0, 0, 0, brt), "B", "B"},
		{"utc clock same instant", time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), "B", "B"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectDetailMessage(date, "A", tc.preview2, tc.now, brt, DefaultCutoffHour))
		})
	}
}

func TestFirstLocation(t *testing.T) {
	assert.Equal(t, "KM 10", firstLocation("KM 10/KM 12"))
	assert.Equal(t, "PATIO", firstLocation(`PATIO\LINHA 2`))
	assert.Equal(t, "ZEV", firstLocation(" ZEV "))
	assert.Equal(t, "", firstLocation(""))
}

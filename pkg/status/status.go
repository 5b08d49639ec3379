// pkg/status/status.go

// Package status derives activity statuses from timestamps and production figures.
// Every function here is total: any input combination yields a status.
package status

import (
	"math"

	"github.com/EricBinekS/StatusDiario/pkg/converter"
	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// Source status codes
const (
	CodeCanceled   = 0
	CodeInProgress = 1
	CodeFinished   = 2
)

// Adherence thresholds for finished activities (actual / planned).
// At or below CanceledMaxRatio counts as canceled, at or below
// PartialMaxRatio as partial, above it as completed.
const (
	CanceledMaxRatio = 0.49
	PartialMaxRatio  = 0.90
)

// Operational derives the timestamp-based status
func Operational(override model.OverrideCode, hasActualStart, hasActualEnd bool) model.OperationalStatus {
	switch override {
	case model.OverrideESP:
		return model.OperationalCanceledESP
	case model.OverrideBLOCO:
		return model.OperationalCanceledBLOCO
	}

	switch {
	case hasActualStart && hasActualEnd:
		return model.OperationalCompleted
	case hasActualStart:
		return model.OperationalInProgress
	default:
		return model.OperationalScheduled
	}
}

// ParseCode reads a source status cell with int(float(x)) semantics
func ParseCode(v any) *int {
	if v == nil {
		return nil
	}
	code, ok := converter.ToInt(v)
	if !ok {
		return nil
	}
	return &code
}

// Production derives the code-based status. Absent or non-finite quantities count as zero.
func Production(code *int, planned, actual *float64) model.ProductionStatus {
	if code == nil {
		return model.ProductionNotStarted
	}

	switch *code {
	case CodeCanceled:
		return model.ProductionCanceled
	case CodeInProgress:
		return model.ProductionInProgress
	case CodeFinished:
		return adherence(finite(planned), finite(actual))
	default:
		return model.ProductionNotStarted
	}
}

func adherence(planned, actual float64) model.ProductionStatus {
	if planned == 0 {
		if actual > 0 {
			return model.ProductionCompleted
		}
		return model.ProductionCanceled
	}

	ratio := actual / planned
	switch {
	case ratio <= CanceledMaxRatio:
		return model.ProductionCanceled
	case ratio <= PartialMaxRatio:
		return model.ProductionPartial
	default:
		return model.ProductionCompleted
	}
}

func finite(f *float64) float64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return 0
	}
	return *f
}

// Effective picks the status served to readers. An override always cancels;
// otherwise a present source code wins over the timestamp derivation.
func Effective(override model.OverrideCode, code *int, production model.ProductionStatus, operational model.OperationalStatus) model.ProductionStatus {
	if override != model.OverrideNone {
		return model.ProductionCanceled
	}
	if code != nil {
		return production
	}

	switch operational {
	case model.OperationalCompleted:
		return model.ProductionCompleted
	case model.OperationalInProgress:
		return model.ProductionInProgress
	case model.OperationalCanceledESP, model.OperationalCanceledBLOCO:
		return model.ProductionCanceled
	default:
		return model.ProductionNotStarted
	}
}

// Apply fills every derived status field on an activity
func Apply(a *model.Activity) {
	a.OperationalStatus = Operational(a.OverrideCode, a.ActualStart != nil, a.ActualEnd != nil)
	a.ProductionStatus = Production(a.RawStatusCode, a.PlannedQuantity, a.ActualQuantity)
	a.Status = Effective(a.OverrideCode, a.RawStatusCode, a.ProductionStatus, a.OperationalStatus)
}

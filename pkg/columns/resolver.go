// pkg/columns/resolver.go
package columns

import (
	"fmt"
	"sort"
	"strings"
)

// Field is a canonical activity field a source column can map to
type Field string

const (
	FieldAsset           Field = "asset"
	FieldActivityType    Field = "activity_type"
	FieldScheduleKind    Field = "schedule_kind"
	FieldManagementUnit  Field = "management_unit"
	FieldSection         Field = "section"
	FieldSubSection      Field = "sub_section"
	FieldActivityDate    Field = "activity_date"
	FieldPlannedStart    Field = "planned_start"
	FieldPlannedDuration Field = "planned_duration"
	FieldActualStart     Field = "actual_start"
	FieldActualEnd       Field = "actual_end"
	FieldPlannedLocation Field = "planned_location"
	FieldActualLocation  Field = "actual_location"
	FieldPlannedQuantity Field = "planned_quantity"
	FieldActualQuantity  Field = "actual_quantity"
	FieldStatusCode      Field = "status_code"
	FieldPreview1        Field = "preview_1"
	FieldPreview2        Field = "preview_2"
)

// Confidence grades how a column was matched
type Confidence float64

const (
	ConfidenceExact Confidence = 1.0
	ConfidenceAffix Confidence = 0.75
	ConfidenceFuzzy Confidence = 0.5
)

// DefaultSlack bounds the length difference accepted by a substring match
const DefaultSlack = 3

// Target describes one canonical field and the cleaned header names that feed it
type Target struct {
	Field      Field
	Candidates []string // In priority order
	Required   bool
	Multi      bool // Resolve to every exact candidate present, in candidate order
}

// DefaultTargets lists the column layout of the daily schedule exports
func DefaultTargets() []Target {
	return []Target{
		{Field: FieldAsset, Candidates: []string{"ativo"}, Required: true},
		{Field: FieldActivityDate, Candidates: []string{"data", "data_atividade"}, Required: true},
		{Field: FieldActivityType, Candidates: []string{"atividade"}},
		{Field: FieldScheduleKind, Candidates: []string{"programar_para_d1", "programar_para_d_1", "tipo"}},
		{Field: FieldManagementUnit, Candidates: []string{"gerencia_da_via", "gerencia_da_via_13", "gerencia_da_via13", "gerencia"}},
		{Field: FieldSection, Candidates: []string{"coordenacao_da_via", "coordenacao_da_via_14", "coordenacao"}},
		{Field: FieldSubSection, Candidates: []string{"sub", "sub_5", "sub_trecho"}},
		{Field: FieldPlannedStart, Candidates: []string{"inicia"}},
		{Field: FieldPlannedDuration, Candidates: []string{"duracao"}},
		{Field: FieldActualStart, Candidates: []string{"inicio"}},
		// The export repeats Fim; only the first, ninth and eleventh carry the
		// actual end. fim_1 to fim_7 hold other stages.
		{Field: FieldActualEnd, Candidates: []string{"fim", "fim_8", "fim_10"}, Multi: true},
		{Field: FieldPlannedLocation, Candidates: []string{"sb"}},
		// sb_1 and quantidade_1 are the older two-column layout
		{Field: FieldActualLocation, Candidates: []string{"sb_4", "sb_1"}},
		{Field: FieldPlannedQuantity, Candidates: []string{"quantidade"}},
		{Field: FieldActualQuantity, Candidates: []string{"quantidade_11", "quantidade_1"}},
		{Field: FieldStatusCode, Candidates: []string{"status", "status_operacional"}},
		{Field: FieldPreview1, Candidates: []string{"previa_1", "previa___1", "previa1"}},
		{Field: FieldPreview2, Candidates: []string{"previa_2", "previa___2", "previa2"}},
	}
}

// Match is a resolved column for a field
type Match struct {
	Column     string
	Index      int
	Confidence Confidence
}

// Resolution is the result of resolving one header row
type Resolution struct {
	Matches map[Field]Match
	Ends    []Match // Ordered end-time columns, highest priority first
	Missing []Field // Required fields with no match
}

// Has reports whether a field resolved
func (r *Resolution) Has(f Field) bool {
	_, ok := r.Matches[f]
	return ok
}

// Index returns the column index of a field, or -1
func (r *Resolution) Index(f Field) int {
	if m, ok := r.Matches[f]; ok {
		return m.Index
	}
	return -1
}

// OK reports whether every required field resolved
func (r *Resolution) OK() bool {
	return len(r.Missing) == 0
}

// MissingError describes the unresolved required fields
type MissingError struct {
	Fields []Field
}

func (e *MissingError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
}

// Resolver maps cleaned header names onto canonical fields
type Resolver struct {
	targets []Target
	slack   int
}

// NewResolver creates a resolver over the given targets
func NewResolver(targets []Target, slack int) *Resolver {
	if slack < 0 {
		slack = DefaultSlack
	}
	return &Resolver{targets: targets, slack: slack}
}

// NewDefaultResolver resolves the standard schedule layout
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultTargets(), DefaultSlack)
}

// Resolve matches targets against cleaned column names. Exact matches are
// claimed first for every target; unresolved targets then fall back to affix
// and bounded substring matches over the unclaimed columns. A column is
// claimed by at most one field.
func (r *Resolver) Resolve(cols []string) (*Resolution, error) {
	res := &Resolution{Matches: make(map[Field]Match, len(r.targets))}
	claimed := make(map[int]bool, len(cols))

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	// Pass 1: exact
	for _, t := range r.targets {
		if t.Multi {
			for _, cand := range t.Candidates {
				if i, ok := index[cand]; ok && !claimed[i] {
					claimed[i] = true
					res.Ends = append(res.Ends, Match{Column: cand, Index: i, Confidence: ConfidenceExact})
				}
			}
			if len(res.Ends) > 0 {
				res.Matches[t.Field] = res.Ends[0]
			}
			continue
		}
		for _, cand := range t.Candidates {
			if i, ok := index[cand]; ok && !claimed[i] {
				claimed[i] = true
				res.Matches[t.Field] = Match{Column: cand, Index: i, Confidence: ConfidenceExact}
				break
			}
		}
	}

	// Pass 2: fallback over unclaimed columns
	for _, t := range r.targets {
		if _, ok := res.Matches[t.Field]; ok {
			continue
		}
		if m, ok := r.fallback(t, cols, claimed); ok {
			claimed[m.Index] = true
			res.Matches[t.Field] = m
			if t.Multi {
				res.Ends = append(res.Ends, m)
			}
		}
	}

	for _, t := range r.targets {
		if t.Required && !res.Has(t.Field) {
			res.Missing = append(res.Missing, t.Field)
		}
	}
	if len(res.Missing) > 0 {
		return res, &MissingError{Fields: res.Missing}
	}
	return res, nil
}

type scored struct {
	Match
	diff int
}

func (r *Resolver) fallback(t Target, cols []string, claimed map[int]bool) (Match, bool) {
	var found []scored
	for _, cand := range t.Candidates {
		for i, col := range cols {
			if claimed[i] {
				continue
			}
			diff := len(col) - len(cand)
			switch {
			case strings.HasPrefix(col, cand+"_") || strings.HasSuffix(col, "_"+cand):
				found = append(found, scored{Match{Column: col, Index: i, Confidence: ConfidenceAffix}, diff})
			case diff >= 0 && diff <= r.slack && strings.Contains(col, cand):
				found = append(found, scored{Match{Column: col, Index: i, Confidence: ConfidenceFuzzy}, diff})
			}
		}
		if len(found) > 0 {
			break
		}
	}
	if len(found) == 0 {
		return Match{}, false
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].Confidence != found[b].Confidence {
			return found[a].Confidence > found[b].Confidence
		}
		if found[a].diff != found[b].diff {
			return found[a].diff < found[b].diff
		}
		return found[a].Index < found[b].Index
	})
	return found[0].Match, true
}

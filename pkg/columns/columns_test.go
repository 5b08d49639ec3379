package columns

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHeader(t *testing.T) {
	cases := map[string]struct {
		in   any
		want string
	}{
		"accents and spaces":   {"Gerência da Via", "gerencia_da_via"},
		"dash separator":       {"Prévia - 1", "previa_1"},
		"plus sign":            {"Programar para D+1", "programar_para_d1"},
		"cedilla and tilde":    {"Coordenação", "coordenacao"},
		"surrounding blanks":   {"  Início  ", "inicio"},
		"blank":                {"   ", UnnamedColumn},
		"nil":                  {nil, UnnamedColumn},
		"numeric header":       {float64(13), "13"},
		"punctuation only":     {"--", UnnamedColumn},
		"already clean":        {"status_operacional", "status_operacional"},
		"mixed case multi gap": {"Data   Atividade", "data_atividade"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanHeader(tc.in))
		})
	}
}

func TestCleanHeadersSuffixesDuplicates(t *testing.T) {
	got := CleanHeaders([]any{"Fim", "Ativo", "Fim", "FIM", "Quantidade", "Quantidade", nil, ""})
	assert.Equal(t, []string{"fim", "ativo", "fim_1", "fim_2", "quantidade", "quantidade_1", "unnamed", "unnamed_1"}, got)
}

func TestCleanHeadersSkipsTakenSuffix(t *testing.T) {
	got := CleanHeaders([]any{"fim", "fim_1", "Fim"})
	assert.Equal(t, []string{"fim", "fim_1", "fim_2"}, got)
}

func TestResolveExactBeforeFallback(t *testing.T) {
	cols := []string{"ativo", "data", "status_operacional", "status"}

	res, err := NewDefaultResolver().Resolve(cols)
	require.NoError(t, err)

	m := res.Matches[FieldStatusCode]
	assert.Equal(t, "status", m.Column)
	assert.Equal(t, 3, m.Index)
	assert.Equal(t, ConfidenceExact, m.Confidence)
}

func TestResolveAffixFallback(t *testing.T) {
	res, err := NewDefaultResolver().Resolve([]string{"ativo", "data", "status_operacional_dia"})
	require.NoError(t, err)

	m := res.Matches[FieldStatusCode]
	assert.Equal(t, "status_operacional_dia", m.Column)
	assert.Equal(t, ConfidenceAffix, m.Confidence)
}

func TestResolveFuzzyRespectsSlack(t *testing.T) {
	r := NewResolver([]Target{{Field: FieldActivityType, Candidates: []string{"atividade"}}}, 3)

	res, err := r.Resolve([]string{"atividades"})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceFuzzy, res.Matches[FieldActivityType].Confidence)

	res, err = r.Resolve([]string{"atividadeprincipal"})
	require.NoError(t, err)
	assert.False(t, res.Has(FieldActivityType))
}

func TestResolveColumnClaimedOnce(t *testing.T) {
	r := NewResolver([]Target{
		{Field: FieldPlannedQuantity, Candidates: []string{"quantidade"}},
		{Field: FieldActualQuantity, Candidates: []string{"quantidade"}},
	}, DefaultSlack)

	res, err := r.Resolve([]string{"quantidade"})
	require.NoError(t, err)
	assert.True(t, res.Has(FieldPlannedQuantity))
	assert.False(t, res.Has(FieldActualQuantity))
}

func TestResolveEndColumnsInPriorityOrder(t *testing.T) {
	header := []any{"Ativo", "Data"}
	for i := 0; i < 11; i++ {
		header = append(header, "Fim")
	}
	cols := CleanHeaders(header)

	res, err := NewDefaultResolver().Resolve(cols)
	require.NoError(t, err)
	require.Len(t, res.Ends, 3)
	assert.Equal(t, "fim", res.Ends[0].Column)
	assert.Equal(t, "fim_8", res.Ends[1].Column)
	assert.Equal(t, "fim_10", res.Ends[2].Column)
	assert.Equal(t, 2, res.Index(FieldActualEnd))
}

func TestResolveIgnoresIntermediateEndColumns(t *testing.T) {
	cols := CleanHeaders([]any{"Ativo", "Data", "Fim", "Fim", "Fim"})

	res, err := NewDefaultResolver().Resolve(cols)
	require.NoError(t, err)
	require.Len(t, res.Ends, 1)
	assert.Equal(t, "fim", res.Ends[0].Column)
}

func TestResolveMissingRequired(t *testing.T) {
	res, err := NewDefaultResolver().Resolve([]string{"atividade", "inicio"})
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []Field{FieldAsset, FieldActivityDate}, missing.Fields)
	assert.False(t, res.OK())
	assert.Equal(t, -1, res.Index(FieldAsset))
}

func TestResolveRealisticHeader(t *testing.T) {
	header := []any{
		"Ativo", "Atividade", "Programar para D+1", "Gerência da Via", "Coordenação da Via",
		"SUB", "Data", "Inicia", "Duração", "Início", "Fim", "SB", "SB", "Quantidade",
		"Quantidade", "Status", "Prévia - 1", "Prévia - 2",
	}

	res, err := NewDefaultResolver().Resolve(CleanHeaders(header))
	require.NoError(t, err)

	for _, f := range []Field{
		FieldAsset, FieldActivityType, FieldScheduleKind, FieldManagementUnit, FieldSection,
		FieldSubSection, FieldActivityDate, FieldPlannedStart, FieldPlannedDuration, FieldActualStart,
		FieldActualEnd, FieldPlannedLocation, FieldActualLocation, FieldPlannedQuantity,
		FieldActualQuantity, FieldStatusCode, FieldPreview1, FieldPreview2,
	} {
		assert.True(t, res.Has(f), "field %s should resolve", f)
	}
	assert.Equal(t, 12, res.Index(FieldActualLocation))
	assert.Equal(t, 14, res.Index(FieldActualQuantity))
}

func TestResolveRealisticHeaderFullLayout(t *testing.T) {
	header := []any{"Ativo", "Atividade", "Data", "Início"}
	repeat := func(name string, n int) {
		for i := 0; i < n; i++ {
			header = append(header, name)
		}
	}
	repeat("Fim", 9)
	repeat("Quantidade", 12)
	repeat("SB", 5)
	header = append(header, "Status")
	cols := CleanHeaders(header)

	res, err := NewDefaultResolver().Resolve(cols)
	require.NoError(t, err)

	ends := make([]string, len(res.Ends))
	for i, m := range res.Ends {
		ends[i] = m.Column
	}
	assert.Equal(t, []string{"fim", "fim_8"}, ends)
	assert.Equal(t, "quantidade", res.Matches[FieldPlannedQuantity].Column)
	assert.Equal(t, "quantidade_11", res.Matches[FieldActualQuantity].Column)
	assert.Equal(t, "sb", res.Matches[FieldPlannedLocation].Column)
	assert.Equal(t, "sb_4", res.Matches[FieldActualLocation].Column)
	assert.Equal(t, "status", res.Matches[FieldStatusCode].Column)
}

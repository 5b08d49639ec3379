package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EricBinekS/StatusDiario/pkg/model"
	"github.com/EricBinekS/StatusDiario/pkg/store"
)

type fakeReader struct {
	mu       sync.Mutex
	token    time.Time
	tokenErr error
	queries  int
	filters  []store.Filter
	acts     []model.Activity
	total    int64
	counts   []store.StatusCount
	prod     store.Production
	queryErr error
}

func (r *fakeReader) QueryActivities(_ context.Context, f store.Filter) ([]model.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	r.filters = append(r.filters, f)
	return r.acts, r.queryErr
}

func (r *fakeReader) CountActivities(context.Context, store.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	return r.total, r.queryErr
}

func (r *fakeReader) StatusDistribution(context.Context, store.Filter) ([]store.StatusCount, error) {
	return r.counts, nil
}

func (r *fakeReader) FinishedProduction(context.Context, store.Filter) (store.Production, error) {
	return r.prod, nil
}

func (r *fakeReader) LastMigrationTime(context.Context) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token.IsZero() {
		return nil, nil
	}
	t := r.token
	return &t, nil
}

func (r *fakeReader) Token(context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token, r.tokenErr
}

var migrated = time.Date(2024, 5, 10, 13, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func TestGetActivitiesIsCachedPerFilterAndToken(t *testing.T) {
	r := &fakeReader{token: migrated, acts: []model.Activity{{Asset: "V12"}}}
	svc := NewService(r, 16, nil)
	ctx := context.Background()

	f := Filter{ManagementUnits: []string{"sul", "NORTE"}}
	first, err := svc.GetActivities(ctx, f)
	require.NoError(t, err)
	require.NotNil(t, first.LastUpdated)
	assert.True(t, migrated.Equal(*first.LastUpdated))
	assert.Len(t, first.Activities, 1)

	// Same filter in another order hits the cache
	second, err := svc.GetActivities(ctx, Filter{ManagementUnits: []string{"norte", "SUL"}})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.queries)

	// A new batch invalidates the entry
	r.mu.Lock()
	r.token = migrated.Add(time.Hour)
	r.mu.Unlock()
	third, err := svc.GetActivities(ctx, f)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, r.queries)
}

func TestGetActivitiesFailsOpen(t *testing.T) {
	r := &fakeReader{tokenErr: errors.New("timeout"), acts: []model.Activity{{Asset: "V12"}}}
	svc := NewService(r, 16, nil)

	for i := 0; i < 2; i++ {
		view, err := svc.GetActivities(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Len(t, view.Activities, 1)
	}
	assert.Equal(t, 2, r.queries)
}

func TestGetActivitiesPropagatesQueryError(t *testing.T) {
	boom := errors.New("query failed")
	svc := NewService(&fakeReader{token: migrated, queryErr: boom}, 16, nil)

	_, err := svc.GetActivities(context.Background(), Filter{})
	require.ErrorIs(t, err, boom)
}

func TestGetOverview(t *testing.T) {
	r := &fakeReader{
		token: migrated,
		total: 7,
		counts: []store.StatusCount{
			{Status: "COMPLETED", Count: 3},
			{Status: "PARTIAL", Count: 2},
			{Status: "-", Count: 1},
			{Status: "", Count: 1},
		},
		prod: store.Production{Actual: f64(95), Planned: f64(120)},
	}
	svc := NewService(r, 16, nil)

	ov, err := svc.GetOverview(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), ov.TotalActivities)
	assert.Equal(t, map[string]int64{"COMPLETED": 3, "PARTIAL": 2}, ov.StatusDistribution)
	assert.Equal(t, 79.17, ov.Adherence)

	again, err := svc.GetOverview(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Same(t, ov, again)
}

func TestAdherence(t *testing.T) {
	assert.Equal(t, 0.0, adherence(store.Production{}))
	assert.Equal(t, 0.0, adherence(store.Production{Actual: f64(5), Planned: f64(0)}))
	assert.Equal(t, 0.0, adherence(store.Production{Planned: f64(10)}))
	assert.Equal(t, 50.0, adherence(store.Production{Actual: f64(5), Planned: f64(10)}))
}

func TestIsValidEntry(t *testing.T) {
	for _, v := range []string{"", "  ", "-", "--", ".", "?", "N/A", "NULL", "0", "***", "_", "—"} {
		assert.False(t, IsValidEntry(v), v)
	}
	for _, v := range []string{"COMPLETED", "É", "10", "A-1"} {
		assert.True(t, IsValidEntry(v), v)
	}
}

func TestSignature(t *testing.T) {
	from := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	a := Signature(Filter{DateFrom: &from, DateTo: &to, ManagementUnits: []string{"b", " a "}, ScheduleKind: "contrato"})
	b := Signature(Filter{DateFrom: &from, DateTo: &to, ManagementUnits: []string{"A", "B", ""}, ScheduleKind: "CONTRATO"})
	assert.Equal(t, a, b)
	assert.Equal(t, "from=2024-05-01|to=2024-05-31|units=A,B|kind=CONTRATO", a)

	assert.NotEqual(t, a, Signature(Filter{DateFrom: &from}))
	assert.Equal(t, "from=|to=|units=|kind=", Signature(Filter{}))
}

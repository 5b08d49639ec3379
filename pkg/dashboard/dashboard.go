// pkg/dashboard/dashboard.go

// Package dashboard serves the cached read views of the activity store.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/cache"
	"github.com/EricBinekS/StatusDiario/pkg/model"
	"github.com/EricBinekS/StatusDiario/pkg/store"
)

// Filter narrows a dashboard read
type Filter = store.Filter

// Reader is the read side of the activity store
type Reader interface {
	QueryActivities(ctx context.Context, f store.Filter) ([]model.Activity, error)
	CountActivities(ctx context.Context, f store.Filter) (int64, error)
	StatusDistribution(ctx context.Context, f store.Filter) ([]store.StatusCount, error)
	FinishedProduction(ctx context.Context, f store.Filter) (store.Production, error)
	LastMigrationTime(ctx context.Context) (*time.Time, error)
	Token(ctx context.Context) (time.Time, error)
}

// ActivitiesView is the activity list with the time of the batch it came from
type ActivitiesView struct {
	Activities  []model.Activity `json:"activities"`
	LastUpdated *time.Time       `json:"lastUpdated"`
}

// Overview holds the headline indicators of a filter
type Overview struct {
	TotalActivities    int64            `json:"totalActivities"`
	StatusDistribution map[string]int64 `json:"statusDistribution"`
	Adherence          float64          `json:"adherence"` // Percent, two decimals
}

// Service answers dashboard reads through per-filter caches
type Service struct {
	reader     Reader
	activities *cache.ReadCache[*ActivitiesView]
	overview   *cache.ReadCache[*Overview]
	logger     *zap.Logger
}

// NewService creates a Service caching at most maxEntries filters per view
func NewService(reader Reader, maxEntries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reader:     reader,
		activities: cache.New[*ActivitiesView]("activities", reader, maxEntries, cache.WithLogger[*ActivitiesView](logger)),
		overview:   cache.New[*Overview]("overview", reader, maxEntries, cache.WithLogger[*Overview](logger)),
		logger:     logger.Named("dashboard"),
	}
}

// GetActivities returns the activities matching f
func (s *Service) GetActivities(ctx context.Context, f Filter) (*ActivitiesView, error) {
	return s.activities.Get(ctx, Signature(f), func(ctx context.Context) (*ActivitiesView, error) {
		acts, err := s.reader.QueryActivities(ctx, f)
		if err != nil {
			return nil, err
		}
		last, err := s.reader.LastMigrationTime(ctx)
		if err != nil {
			return nil, err
		}
		return &ActivitiesView{Activities: acts, LastUpdated: last}, nil
	})
}

// GetLastMigrationTime returns when the stored batch was written, or nil
func (s *Service) GetLastMigrationTime(ctx context.Context) (*time.Time, error) {
	return s.reader.LastMigrationTime(ctx)
}

// GetOverview returns the indicators for f. The distribution leaves out
// placeholder statuses; adherence is actual over planned production of
// completed and partial activities.
func (s *Service) GetOverview(ctx context.Context, f Filter) (*Overview, error) {
	return s.overview.Get(ctx, Signature(f), func(ctx context.Context) (*Overview, error) {
		total, err := s.reader.CountActivities(ctx, f)
		if err != nil {
			return nil, err
		}
		counts, err := s.reader.StatusDistribution(ctx, f)
		if err != nil {
			return nil, err
		}
		prod, err := s.reader.FinishedProduction(ctx, f)
		if err != nil {
			return nil, err
		}

		dist := make(map[string]int64, len(counts))
		for _, c := range counts {
			if IsValidEntry(c.Status) {
				dist[c.Status] = c.Count
			}
		}
		return &Overview{
			TotalActivities:    total,
			StatusDistribution: dist,
			Adherence:          adherence(prod),
		}, nil
	})
}

func adherence(p store.Production) float64 {
	if p.Planned == nil || *p.Planned <= 0 || p.Actual == nil {
		return 0
	}
	return math.Round(*p.Actual / *p.Planned * 100 * 100) / 100
}

var punctuationOnly = regexp.MustCompile(`^[^\p{L}\p{N}]+$`)

var placeholders = map[string]struct{}{
	"-": {}, "--": {}, ".": {}, "?": {}, "N/A": {}, "NULL": {}, "0": {},
}

// IsValidEntry reports whether a dimension value carries information
func IsValidEntry(value string) bool {
	s := strings.TrimSpace(value)
	if s == "" {
		return false
	}
	if _, ok := placeholders[s]; ok {
		return false
	}
	return !punctuationOnly.MatchString(s)
}

// Signature renders a filter as a stable cache key. Unit order and case do
// not change the signature.
func Signature(f Filter) string {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	units := make([]string, 0, len(f.ManagementUnits))
	for _, u := range f.ManagementUnits {
		if u = strings.ToUpper(strings.TrimSpace(u)); u != "" {
			units = append(units, u)
		}
	}
	sort.Strings(units)

	return fmt.Sprintf("from=%s|to=%s|units=%s|kind=%s",
		day(f.DateFrom), day(f.DateTo),
		strings.Join(units, ","),
		strings.ToUpper(strings.TrimSpace(f.ScheduleKind)))
}

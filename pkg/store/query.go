// pkg/store/query.go
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// Schedule kinds accepted by the dashboard filter
const (
	ScheduleKindContract    = "CONTRATO"
	ScheduleKindOpportunity = "OPORTUNIDADE"

	contractPattern = "%CONTRATO%"
)

// Filter narrows dashboard reads. Zero values mean "no restriction".
type Filter struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	ManagementUnits []string
	ScheduleKind    string
}

// StatusCount is one bucket of the status distribution
type StatusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

// Production sums quantities over finished activities
type Production struct {
	Actual  *float64 `db:"actual"`
	Planned *float64 `db:"planned"`
}

// where renders the filter as a WHERE clause with positional arguments
func (f Filter) where() (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DateFrom != nil {
		conds = append(conds, "activity_date >= "+arg(f.DateFrom.Format("2006-01-02"))+"::date")
	}
	if f.DateTo != nil {
		conds = append(conds, "activity_date <= "+arg(f.DateTo.Format("2006-01-02"))+"::date")
	}
	if len(f.ManagementUnits) > 0 {
		units := make([]string, 0, len(f.ManagementUnits))
		for _, u := range f.ManagementUnits {
			if u = strings.ToUpper(strings.TrimSpace(u)); u != "" {
				units = append(units, u)
			}
		}
		if len(units) > 0 {
			conds = append(conds, "management_unit = ANY("+arg(pq.Array(units))+")")
		}
	}
	switch strings.ToUpper(strings.TrimSpace(f.ScheduleKind)) {
	case ScheduleKindContract:
		conds = append(conds, "schedule_kind LIKE "+arg(contractPattern))
	case ScheduleKindOpportunity:
		conds = append(conds, "schedule_kind NOT LIKE "+arg(contractPattern))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const activitySelect = `SELECT id, row_hash, batch_id, source_id, source_row, asset,
	COALESCE(activity_type, '') AS activity_type,
	COALESCE(schedule_kind, '') AS schedule_kind,
	COALESCE(management_unit, '') AS management_unit,
	COALESCE(section, '') AS section,
	COALESCE(sub_section, '') AS sub_section,
	COALESCE(planned_location, '') AS planned_location,
	COALESCE(actual_location, '') AS actual_location,
	activity_date, planned_start, planned_end, actual_start, actual_end,
	planned_duration, actual_duration, planned_quantity, actual_quantity,
	raw_status_code, operational_status, production_status, status,
	COALESCE(override_code, '') AS override_code,
	COALESCE(detail_message, '') AS detail_message,
	ingested_at
	FROM activities`

// QueryActivities returns the activities matching the filter ordered by date
// and planned start
func (s *Store) QueryActivities(ctx context.Context, f Filter) ([]model.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	where, args := f.where()
	query := activitySelect + where + " ORDER BY activity_date, planned_start NULLS LAST, id"

	activities := []model.Activity{}
	if err := s.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	return activities, nil
}

// CountActivities returns the number of activities matching the filter
func (s *Store) CountActivities(ctx context.Context, f Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	where, args := f.where()
	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activities"+where, args...); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return total, nil
}

// StatusDistribution groups the matching activities by effective status
func (s *Store) StatusDistribution(ctx context.Context, f Filter) ([]StatusCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	where, args := f.where()
	var counts []StatusCount
	query := "SELECT status, COUNT(*) AS count FROM activities" + where + " GROUP BY status ORDER BY status"
	if err := s.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("query status distribution: %w", err)
	}
	return counts, nil
}

// FinishedProduction sums actual and planned quantities of completed and
// partial activities
func (s *Store) FinishedProduction(ctx context.Context, f Filter) (Production, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	where, args := f.where()
	finished := fmt.Sprintf("status IN ('%s', '%s')", model.ProductionCompleted, model.ProductionPartial)
	if where == "" {
		where = " WHERE " + finished
	} else {
		where += " AND " + finished
	}

	var p Production
	query := "SELECT SUM(actual_quantity) AS actual, SUM(planned_quantity) AS planned FROM activities" + where
	if err := s.db.GetContext(ctx, &p, query, args...); err != nil {
		return Production{}, fmt.Errorf("query production totals: %w", err)
	}
	return p, nil
}

// pkg/store/store.go

// Package store persists activity batches in PostgreSQL and serves the
// dashboard read queries.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/connector"
	"github.com/EricBinekS/StatusDiario/pkg/model"
)

const migrationLogID = 1

// ErrRowCountMismatch is returned when the rows visible after a replace do
// not match the rows written
var ErrRowCountMismatch = errors.New("persisted row count does not match batch")

// Options tunes statement deadlines and batch sizes
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	InsertBatchSize int
}

// Store is the PostgreSQL-backed activity store
type Store struct {
	db     *sqlx.DB
	opts   Options
	logger *zap.Logger
}

// New creates a Store over an open database handle
func New(db *sqlx.DB, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Minute
	}
	if opts.InsertBatchSize <= 0 {
		opts.InsertBatchSize = 500
	}
	return &Store{db: db, opts: opts, logger: logger.Named("store")}
}

// Migrate creates the tables and indexes if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("execute schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		id BIGSERIAL PRIMARY KEY,
		row_hash TEXT NOT NULL UNIQUE,
		batch_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		source_row INTEGER NOT NULL,
		asset TEXT NOT NULL,
		activity_type TEXT,
		schedule_kind TEXT,
		management_unit TEXT,
		section TEXT,
		sub_section TEXT,
		planned_location TEXT,
		actual_location TEXT,
		activity_date DATE NOT NULL,
		planned_start TIMESTAMPTZ,
		planned_end TIMESTAMPTZ,
		actual_start TIMESTAMPTZ,
		actual_end TIMESTAMPTZ,
		planned_duration TEXT,
		actual_duration TEXT,
		planned_quantity DOUBLE PRECISION,
		actual_quantity DOUBLE PRECISION,
		raw_status_code INTEGER,
		operational_status TEXT NOT NULL,
		production_status TEXT NOT NULL,
		status TEXT NOT NULL,
		override_code TEXT,
		detail_message TEXT,
		ingested_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities (activity_date);`,
	`CREATE INDEX IF NOT EXISTS idx_activities_dashboard ON activities (activity_date, status, planned_start);`,
	`CREATE TABLE IF NOT EXISTS migration_log (
		id INTEGER PRIMARY KEY,
		last_updated_at TIMESTAMPTZ NOT NULL,
		batch_id TEXT NOT NULL,
		row_count BIGINT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS cleaned_on_ingress (
		id BIGSERIAL PRIMARY KEY,
		batch_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		row_hash TEXT,
		row_number INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		original_value TEXT,
		new_value TEXT,
		cleaning_operation TEXT NOT NULL,
		cleaning_reason TEXT,
		cleaned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

var activityColumns = []string{
	"row_hash", "batch_id", "source_id", "source_row",
	"asset", "activity_type", "schedule_kind", "management_unit", "section", "sub_section",
	"planned_location", "actual_location",
	"activity_date", "planned_start", "planned_end", "actual_start", "actual_end",
	"planned_duration", "actual_duration", "planned_quantity", "actual_quantity",
	"raw_status_code", "operational_status", "production_status", "status",
	"override_code", "detail_message", "ingested_at",
}

var cleaningColumns = []string{
	"batch_id", "source_id", "row_hash", "row_number", "column_name",
	"original_value", "new_value", "cleaning_operation", "cleaning_reason",
}

// ReplaceBatch swaps the stored activities for the batch in one transaction,
// records its cleaning operations and stamps migration_log. On any error the
// previous batch and its timestamp are left untouched.
func (s *Store) ReplaceBatch(
	ctx context.Context,
	batchID string,
	runAt time.Time,
	activities []model.Activity,
	ops []model.CleaningOperation,
) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	var written int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE activities RESTART IDENTITY`); err != nil {
			return fmt.Errorf("truncate activities: %w", err)
		}

		rows := make([][]interface{}, len(activities))
		for i := range activities {
			rows[i] = activityValues(&activities[i], batchID)
		}
		n, err := connector.BatchInsert(ctx, tx, "activities", activityColumns, rows, s.opts.InsertBatchSize)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM activities`); err != nil {
			return fmt.Errorf("count activities: %w", err)
		}
		if count != int64(len(activities)) {
			return fmt.Errorf("%w: inserted %d, counted %d, expected %d", ErrRowCountMismatch, n, count, len(activities))
		}
		written = count

		if err := recordCleaningOperations(ctx, tx, batchID, ops, s.opts.InsertBatchSize); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO migration_log (id, last_updated_at, batch_id, row_count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET last_updated_at = EXCLUDED.last_updated_at,
			    batch_id = EXCLUDED.batch_id,
			    row_count = EXCLUDED.row_count`,
			migrationLogID, runAt, batchID, written)
		if err != nil {
			return fmt.Errorf("update migration log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Replaced activity batch",
		zap.String("batchID", batchID),
		zap.Int64("rows", written),
		zap.Int("cleaningOperations", len(ops)))
	return written, nil
}

func activityValues(a *model.Activity, batchID string) []interface{} {
	return []interface{}{
		a.RowHash, batchID, a.SourceID, a.SourceRow,
		a.Asset, nullIfEmpty(a.ActivityType), nullIfEmpty(a.ScheduleKind), nullIfEmpty(a.ManagementUnit),
		nullIfEmpty(a.Section), nullIfEmpty(a.SubSection),
		nullIfEmpty(a.PlannedLocation), nullIfEmpty(a.ActualLocation),
		a.ActivityDate, a.PlannedStart, a.PlannedEnd, a.ActualStart, a.ActualEnd,
		a.PlannedDuration, a.ActualDuration, a.PlannedQuantity, a.ActualQuantity,
		a.RawStatusCode, string(a.OperationalStatus), string(a.ProductionStatus), string(a.Status),
		nullIfEmpty(string(a.OverrideCode)), nullIfEmpty(a.DetailMessage), a.IngestedAt,
	}
}

// recordCleaningOperations writes the audit trail of the batch
func recordCleaningOperations(ctx context.Context, tx *sqlx.Tx, batchID string, ops []model.CleaningOperation, batchSize int) error {
	if len(ops) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(ops))
	for i, op := range ops {
		rows[i] = []interface{}{
			batchID,
			op.SourceID,
			nullIfEmpty(op.RowHash),
			op.RowNumber,
			op.ColumnName,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.CleaningOperation,
			op.CleaningReason,
		}
	}
	if _, err := connector.BatchInsert(ctx, tx, "cleaned_on_ingress", cleaningColumns, rows, batchSize); err != nil {
		return fmt.Errorf("record cleaning operations: %w", err)
	}
	return nil
}

// LastMigrationTime returns the timestamp of the last successful batch, or
// nil when no batch has completed yet
func (s *Store) LastMigrationTime(ctx context.Context) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	var logs []model.MigrationLog
	err := s.db.SelectContext(ctx, &logs,
		`SELECT id, last_updated_at, batch_id, row_count FROM migration_log WHERE id = $1`, migrationLogID)
	if err != nil {
		return nil, fmt.Errorf("query migration log: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	t := logs[0].LastUpdatedAt
	return &t, nil
}

// Token is LastMigrationTime as a cache freshness token; the zero time
// stands for "never migrated"
func (s *Store) Token(ctx context.Context) (time.Time, error) {
	t, err := s.LastMigrationTime(ctx)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}

// Ping checks the database is reachable within the read deadline
func (s *Store) Ping(ctx context.Context) error {
	return connector.PingWithTimeout(ctx, s.db.DB, s.opts.ReadTimeout)
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// toNullableString renders an audit value as text, keeping nil as NULL
func toNullableString(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// pkg/store/verify.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// IntegrityIssue is one problem found in the stored batch
type IntegrityIssue struct {
	IssueType    string
	Description  string
	AffectedRows int64
}

// VerificationReport describes the consistency of the stored batch with its
// migration_log entry
type VerificationReport struct {
	VerificationTime time.Time
	BatchID          string
	LoggedRowCount   int64
	StoredRowCount   int64
	IntegrityIssues  []IntegrityIssue
	Duration         time.Duration
}

// Healthy reports whether no issue was found
func (r *VerificationReport) Healthy() bool {
	return len(r.IntegrityIssues) == 0
}

type integrityCheck struct {
	issueType   string
	description string
	query       string
	// byBatch queries take the logged batch id as $1
	byBatch bool
}

// Each query counts the offending rows of the stored batch
var integrityChecks = []integrityCheck{
	{
		issueType:   "FOREIGN_BATCH",
		description: "Rows stamped with a batch other than the logged one",
		query:       `SELECT COUNT(*) FROM activities WHERE batch_id <> $1`,
		byBatch:     true,
	},
	{
		issueType:   "BLANK_ASSET",
		description: "Rows without an asset",
		query:       `SELECT COUNT(*) FROM activities WHERE btrim(asset) = ''`,
	},
	{
		issueType:   "DUPLICATE_ROW_HASH",
		description: "Rows sharing a content hash",
		query: `SELECT COALESCE(SUM(n - 1), 0) FROM (
			SELECT COUNT(*) AS n FROM activities GROUP BY row_hash HAVING COUNT(*) > 1
		) d`,
	},
}

func (c integrityCheck) args(batchID string) []any {
	if c.byBatch {
		return []any{batchID}
	}
	return nil
}

// Verify compares the stored activities with the migration_log stamp and runs
// the integrity checks. An empty store yields an empty, healthy report.
func (s *Store) Verify(ctx context.Context) (*VerificationReport, error) {
	startTime := time.Now()
	report := &VerificationReport{VerificationTime: startTime}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadTimeout)
	defer cancel()

	err := s.db.QueryRowxContext(ctx,
		`SELECT batch_id, row_count FROM migration_log WHERE id = $1`, migrationLogID,
	).Scan(&report.BatchID, &report.LoggedRowCount)
	if errors.Is(err, sql.ErrNoRows) {
		report.Duration = time.Since(startTime)
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migration log: %w", err)
	}

	if err := s.db.GetContext(ctx, &report.StoredRowCount, `SELECT COUNT(*) FROM activities`); err != nil {
		return nil, fmt.Errorf("count activities: %w", err)
	}
	if report.StoredRowCount != report.LoggedRowCount {
		report.IntegrityIssues = append(report.IntegrityIssues, IntegrityIssue{
			IssueType: "ROW_COUNT_MISMATCH",
			Description: fmt.Sprintf("migration_log records %d rows, activities holds %d",
				report.LoggedRowCount, report.StoredRowCount),
			AffectedRows: abs(report.StoredRowCount - report.LoggedRowCount),
		})
	}

	for _, check := range integrityChecks {
		var n int64
		if err := s.db.GetContext(ctx, &n, check.query, check.args(report.BatchID)...); err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", check.issueType, err)
		}
		if n > 0 {
			report.IntegrityIssues = append(report.IntegrityIssues, IntegrityIssue{
				IssueType:    check.issueType,
				Description:  check.description,
				AffectedRows: n,
			})
		}
	}

	report.Duration = time.Since(startTime)
	for _, issue := range report.IntegrityIssues {
		s.logger.Warn("Integrity issue",
			zap.String("batchID", report.BatchID),
			zap.String("issue", issue.IssueType),
			zap.Int64("affectedRows", issue.AffectedRows))
	}
	s.logger.Info("Verification completed",
		zap.String("batchID", report.BatchID),
		zap.Int64("rows", report.StoredRowCount),
		zap.Bool("healthy", report.Healthy()),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

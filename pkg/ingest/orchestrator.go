// pkg/ingest/orchestrator.go

// Package ingest runs ingestion batches: load sources, normalize headers,
// build activities, deduplicate and replace the stored batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EricBinekS/StatusDiario/pkg/cleaner"
	"github.com/EricBinekS/StatusDiario/pkg/columns"
	"github.com/EricBinekS/StatusDiario/pkg/model"
	"github.com/EricBinekS/StatusDiario/pkg/notify"
	"github.com/EricBinekS/StatusDiario/pkg/source"
	"github.com/EricBinekS/StatusDiario/pkg/transform"
)

// Store persists a finished batch atomically
type Store interface {
	ReplaceBatch(ctx context.Context, batchID string, runAt time.Time,
		activities []model.Activity, ops []model.CleaningOperation) (int64, error)
}

// Options configures an Orchestrator
type Options struct {
	WindowDays int // 0 keeps every date
	Workers    int
	Location   *time.Location
	Now        func() time.Time
	Notifier   notify.Notifier
}

// Orchestrator runs one ingestion batch at a time
type Orchestrator struct {
	provider     source.Provider
	resolver     *columns.Resolver
	transformer  *transform.Transformer
	cleaner      *cleaner.DataCleaner
	store        Store
	notifier     notify.Notifier
	errorHandler *ErrorHandler
	logger       *zap.Logger

	now        func() time.Time
	loc        *time.Location
	windowDays int
	workers    int

	runMu   sync.Mutex
	stateMu sync.RWMutex
	last    *stateMachine
}

// NewOrchestrator wires the batch stages together
func NewOrchestrator(
	provider source.Provider,
	resolver *columns.Resolver,
	transformer *transform.Transformer,
	dataCleaner *cleaner.DataCleaner,
	store Store,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ingest")
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}

	return &Orchestrator{
		provider:     provider,
		resolver:     resolver,
		transformer:  transformer,
		cleaner:      dataCleaner,
		store:        store,
		notifier:     opts.Notifier,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		now:          opts.Now,
		loc:          opts.Location,
		windowDays:   opts.WindowDays,
		workers:      opts.Workers,
		last:         newStateMachine(),
	}
}

// State returns the stage of the current or most recent batch
func (o *Orchestrator) State() State {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.last.Current()
}

// ErrorSummary returns error counts by category across all runs
func (o *Orchestrator) ErrorSummary() map[ErrorCategory]int {
	return o.errorHandler.GetErrorSummary()
}

// loaded is one source after LOADING, kept in provider order
type loaded struct {
	id    string
	table *model.SourceTable
	err   error
}

// Run executes one batch. It returns a nil result and ErrBatchInProgress
// without side effects when another batch is running; otherwise the result
// is non-nil, also on failure.
func (o *Orchestrator) Run(ctx context.Context) (*BatchResult, error) {
	if !o.runMu.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer o.runMu.Unlock()

	sm := newStateMachine()
	o.stateMu.Lock()
	o.last = sm
	o.stateMu.Unlock()

	runAt := o.now()
	result := NewBatchResult(runAt)
	logger := o.logger.With(zap.String("batchID", result.BatchID))
	logger.Info("Starting ingestion batch")

	err := o.run(ctx, sm, result, runAt, logger)
	if err != nil {
		if tErr := sm.Transition(StateFailed); tErr != nil {
			logger.Error("Failed to mark batch as failed", zap.Error(tErr))
		}
		var aborted *abortError
		var record ErrorRecord
		if errors.As(err, &aborted) {
			record = aborted.record
		} else {
			record = NewErrorRecord(err, o.categorize(err))
			o.errorHandler.RecordError(record)
		}
		result.AddError(record)
	}
	result.State = sm.Current()
	result.Stages = sm.History()
	result.Complete(err == nil, o.now())
	recordBatch(logger, result)

	if err != nil {
		return result, err
	}

	ev := notify.Event{
		Type:      notify.EventDataUpdated,
		BatchID:   result.BatchID,
		UpdatedAt: runAt,
		RowCount:  result.RowsPersisted,
	}
	if nErr := o.notifier.DataUpdated(ctx, ev); nErr != nil {
		logger.Warn("Failed to publish data-updated event", zap.Error(nErr))
		result.AddWarning(fmt.Sprintf("notification failed: %v", nErr))
	}
	return result, nil
}

var errPersist = errors.New("persist batch")

func (o *Orchestrator) categorize(err error) ErrorCategory {
	if errors.Is(err, errPersist) {
		return ErrorCategoryPersistence
	}
	return ErrorCategoryCritical
}

func (o *Orchestrator) run(ctx context.Context, sm *stateMachine, result *BatchResult, runAt time.Time, logger *zap.Logger) error {
	// LOADING
	if err := sm.Transition(StateLoading); err != nil {
		return err
	}
	sources, err := o.provider.Sources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		return ErrNoSources
	}
	tables, err := o.load(ctx, sources)
	if err != nil {
		return err
	}
	logger.Debug("Loaded sources", zap.Int("sources", len(tables)))

	// NORMALIZING
	if err := sm.Transition(StateNormalizing); err != nil {
		return err
	}
	type resolved struct {
		table *model.SourceTable
		res   *columns.Resolution
	}
	var ready []resolved
	for _, l := range tables {
		if l.err != nil {
			if err := o.skip(result, l.id, l.err); err != nil {
				return err
			}
			continue
		}
		res, err := o.resolver.Resolve(columns.CleanHeaders(l.table.Header))
		if err != nil {
			if err := o.skip(result, l.id, err); err != nil {
				return err
			}
			continue
		}
		ready = append(ready, resolved{table: l.table, res: res})
	}

	// TRANSFORMING
	if err := sm.Transition(StateTransforming); err != nil {
		return err
	}
	var (
		activities []model.Activity
		ops        []model.CleaningOperation
	)
	windowStart := o.windowStart(runAt)
	for _, r := range ready {
		acts, rowOps, stats := o.transformer.TransformTable(r.table, r.res, runAt)
		result.AddSourceResult(SourceResult{
			SourceID:    r.table.SourceID,
			RowsRead:    stats.RowsRead,
			RowsEmitted: stats.RowsEmitted,
			Dropped:     stats.Dropped,
		})
		for _, a := range acts {
			if windowStart != nil && a.ActivityDate.Before(*windowStart) {
				result.RowsOutsideWindow++
				continue
			}
			activities = append(activities, a)
		}
		ops = append(ops, rowOps...)
	}
	ops = append(ops, o.cleaner.CleanActivities(activities)...)
	logger.Debug("Transformed sources",
		zap.Int("sources", len(ready)),
		zap.Int("activities", len(activities)),
		zap.Int("outsideWindow", result.RowsOutsideWindow))

	// DEDUPING
	if err := sm.Transition(StateDeduping); err != nil {
		return err
	}
	kept, dropped := cleaner.Dedupe(activities)
	result.RowsDeduplicated = dropped
	for i := range kept {
		kept[i].BatchID = result.BatchID
	}
	ops = cleaner.AttachRowHashes(ops, kept)
	for i := range ops {
		ops[i].BatchID = result.BatchID
	}
	result.CleaningOperations = len(ops)
	if len(kept) == 0 {
		return ErrEmptyBatch
	}

	// PERSISTING
	if err := sm.Transition(StatePersisting); err != nil {
		return err
	}
	n, err := o.store.ReplaceBatch(ctx, result.BatchID, runAt, kept, ops)
	if err != nil {
		return fmt.Errorf("%w: %w", errPersist, err)
	}
	result.RowsPersisted = n

	return sm.Transition(StateDone)
}

// load reads every source with at most o.workers in flight. A failed read
// is kept as a per-source error; only cancellation aborts the stage.
func (o *Orchestrator) load(ctx context.Context, sources []source.Source) ([]loaded, error) {
	out := make([]loaded, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			table, err := src.Read(gctx)
			out[i] = loaded{id: src.ID(), table: table, err: err}
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return out, nil
}

// abortError carries a source error the handler has already recorded
type abortError struct {
	record ErrorRecord
}

func (e *abortError) Error() string {
	return fmt.Sprintf("source %s: %v", e.record.SourceID, e.record.Error)
}

func (e *abortError) Unwrap() error { return e.record.Error }

// skip drops a source from the batch unless its error calls for an abort
func (o *Orchestrator) skip(result *BatchResult, id string, err error) error {
	record := NewErrorRecord(err, o.errorHandler.CategorizeError(err)).WithSource(id)
	if o.errorHandler.HandleError(record) == ActionAbort {
		return &abortError{record: record}
	}
	result.AddError(record)
	result.MarkSkipped(id, err)
	return nil
}

// windowStart returns the first local date kept, or nil for no window
func (o *Orchestrator) windowStart(runAt time.Time) *time.Time {
	if o.windowDays <= 0 {
		return nil
	}
	local := runAt.In(o.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, o.loc).AddDate(0, 0, -o.windowDays)
	return &start
}

// cmd/statusdiario/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/api"
	"github.com/EricBinekS/StatusDiario/pkg/cleaner"
	"github.com/EricBinekS/StatusDiario/pkg/columns"
	"github.com/EricBinekS/StatusDiario/pkg/config"
	"github.com/EricBinekS/StatusDiario/pkg/connector"
	"github.com/EricBinekS/StatusDiario/pkg/converter"
	"github.com/EricBinekS/StatusDiario/pkg/dashboard"
	"github.com/EricBinekS/StatusDiario/pkg/ingest"
	"github.com/EricBinekS/StatusDiario/pkg/notify"
	"github.com/EricBinekS/StatusDiario/pkg/source"
	"github.com/EricBinekS/StatusDiario/pkg/store"
	"github.com/EricBinekS/StatusDiario/pkg/transform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "statusdiario",
		Short:        "Daily maintenance schedule ingestion and dashboard API",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newCheckCmd())
	return root
}

// app holds the wired components shared by the commands
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	pg        *connector.PostgresConnector
	snow      *connector.SnowflakeConnector
	store     *store.Store
	notifier  notify.Notifier
	kafka     *notify.KafkaNotifier
	ingestor  *ingest.Orchestrator
	dashboard *dashboard.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	pg, snow, err := connector.NewConnectorFactory(cfg, logger).CreateAllConnectors(ctx)
	if err != nil {
		logger.Error("Failed to create connectors", zap.Error(err))
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, pg: pg, snow: snow, notifier: notify.Noop{}}
	a.store = store.New(pg.DB(), store.Options{
		ReadTimeout:     cfg.Postgres.ReadTimeout,
		WriteTimeout:    cfg.Postgres.WriteTimeout,
		InsertBatchSize: cfg.Ingestion.InsertBatchSize,
	}, logger)

	if cfg.Kafka.Enabled() {
		a.kafka = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		a.notifier = a.kafka
	}

	dataCleaner, err := cleaner.NewDataCleaner(logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.ingestor = ingest.NewOrchestrator(
		a.provider(),
		columns.NewDefaultResolver(),
		transform.NewTransformer(converter.NewCellConverter(logger), logger, cfg.Ingestion.CutoffHour),
		dataCleaner,
		a.store,
		logger,
		ingest.Options{
			WindowDays: cfg.Ingestion.WindowDays,
			Workers:    cfg.Ingestion.Workers,
			Location:   cfg.Location(),
			Notifier:   a.notifier,
		},
	)
	a.dashboard = dashboard.NewService(a.store, cfg.CacheEntries, logger)
	return a, nil
}

// provider reads the spreadsheet directory and, when configured, the
// warehouse tables
func (a *app) provider() source.Provider {
	dir := source.NewDirectoryProvider(a.cfg.Ingestion.RawDataDir, a.cfg.Ingestion.SheetMapPath,
		a.cfg.Ingestion.HeaderRow, a.logger)
	if a.snow == nil {
		return dir
	}
	sf := a.cfg.Snowflake
	return source.Multi{dir, source.NewSnowflakeProvider(a.snow, sf.Schema, sf.Tables, sf.FetchSize, a.logger)}
}

func (a *app) close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("Failed to close notifier", zap.Error(err))
		}
	}
	if a.snow != nil {
		if err := a.snow.Close(); err != nil {
			a.logger.Warn("Failed to close Snowflake connection", zap.Error(err))
		}
	}
	if err := a.pg.Close(); err != nil {
		a.logger.Warn("Failed to close PostgreSQL connection", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newMigrateCmd() *cobra.Command {
	var schemaOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and replace the stored batch with the current sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			if schemaOnly {
				a.logger.Info("Schema is up to date")
				return nil
			}

			result, err := a.ingestor.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("Migration finished",
				zap.String("batchID", result.BatchID),
				zap.Int64("rows", result.RowsPersisted),
				zap.Strings("skippedSources", result.SkippedSources()),
				zap.Duration("duration", result.Duration))
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "Create tables and indexes without ingesting")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(ctx); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.HTTP.Address,
				Handler:           api.NewServer(a.dashboard, a.ingestor, a.store, a.cfg.Location(), a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Listening", zap.String("address", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate database connectivity, permissions and the stored batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			conns := map[string]connector.DatabaseConnector{"postgres": a.pg}
			if a.snow != nil {
				conns["snowflake"] = a.snow
			}
			for name, conn := range conns {
				if err := conn.Validate(ctx); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			connector.LogConnectionStats(a.logger, "postgres", a.pg.DB().DB)

			report, err := a.store.Verify(ctx)
			if err != nil {
				return err
			}
			if !report.Healthy() {
				return fmt.Errorf("stored batch %s has %d integrity issues", report.BatchID, len(report.IntegrityIssues))
			}
			a.logger.Info("All connections validated")
			return nil
		},
	}
}

// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EricBinekS/StatusDiario/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// CreateSnowflakeConnector creates a new Snowflake connector, or returns nil
// when no warehouse source is configured
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	if f.cfg.Snowflake == nil {
		return nil, nil
	}
	f.logger.Info("Creating Snowflake connector")

	connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreateAllConnectors creates the PostgreSQL connector and, when configured,
// the Snowflake connector
func (f *ConnectorFactory) CreateAllConnectors(ctx context.Context) (*PostgresConnector, *SnowflakeConnector, error) {
	pgConn, err := f.CreatePostgresConnector(ctx)
	if err != nil {
		return nil, nil, err
	}

	snowConn, err := f.CreateSnowflakeConnector(ctx)
	if err != nil {
		pgConn.Close() // Clean up the PostgreSQL connection if Snowflake fails
		return nil, nil, err
	}

	return pgConn, snowConn, nil
}

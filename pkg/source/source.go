// pkg/source/source.go

// Package source reads raw schedule tables from spreadsheets and warehouse tables.
package source

import (
	"context"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// Source is one tabular input of an ingestion batch
type Source interface {
	ID() string
	Read(ctx context.Context) (*model.SourceTable, error)
}

// Provider lists the sources of a batch. It is consulted once per run so new
// files are picked up without a restart.
type Provider interface {
	Sources(ctx context.Context) ([]Source, error)
}

// Static is a fixed list of sources
type Static []Source

// Sources returns the list unchanged
func (s Static) Sources(context.Context) ([]Source, error) {
	return s, nil
}

// Multi concatenates the sources of several providers in order
type Multi []Provider

// Sources returns every provider's sources, failing on the first error
func (m Multi) Sources(ctx context.Context) ([]Source, error) {
	var all []Source
	for _, p := range m {
		srcs, err := p.Sources(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, srcs...)
	}
	return all, nil
}

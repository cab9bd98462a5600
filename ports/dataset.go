package ports

import (
	"context"

	"autodash/domain/dataset"
)

// DatasetPort is the read-only view of a tabular dataset the synthesizer needs
type DatasetPort interface {
	// Columns enumerates column names with their semantic type tags
	Columns(ctx context.Context) ([]dataset.Column, error)
	// Distinct returns the non-null distinct values of a column, in any order
	Distinct(ctx context.Context, column string) ([]dataset.Value, error)
}

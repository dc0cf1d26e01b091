package repository

import (
	"context"

	"github.com/smallbiznis/brewlink/pkg/db/option"
)

// Repository is a generic GORM-backed store for a single model. Query
// structs match on their non-zero fields.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	// FindOne returns nil, nil when no row matches.
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
	Exists(ctx context.Context, query *T) (bool, error)
	// Exec runs one raw statement and reports the affected row count.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

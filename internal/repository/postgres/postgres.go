package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/clinic/internal/apperrors"
)

// Subset of pgx interface that satisfied by pool, connection or transaction
// So repositories may be used with any of them
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Wrap unexpected db faults so services and handlers may match the
// whole class with errors.Is(err, apperrors.ErrStoreUnavailable)
func storeError(err error) error {
	return fmt.Errorf("db error: %w: %w", apperrors.ErrStoreUnavailable, err)
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Repositories accept nil for the
// non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one store transaction and passes the
// handle on as tx. The transaction commits when fn returns nil and rolls
// back otherwise.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		n, err := settings.Increment(ctx, tx, model.SettingKeysSoldCount, 1, actor)
//		...
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

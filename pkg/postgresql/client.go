package postgresql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flexipay/wallet-service/pkg/util/repeat"
)

const ClientTimeout = 5 * time.Second

// NewClient builds a connection pool, retrying the initial connect so a store
// that is still starting up does not fail the whole process immediately.
func NewClient(cfg *pgxpool.Config, maxConnAttempts int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	err = repeat.Repeat(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), ClientTimeout)
		defer cancel()

		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}

		err = pool.Ping(ctx)
		if err != nil {
			return err
		}

		return nil
	}, maxConnAttempts, ClientTimeout)

	if err != nil {
		return nil, err
	}

	return pool, nil
}

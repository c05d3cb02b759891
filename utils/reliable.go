package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

func newBackoff(ctx context.Context, timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond * 50
	b.MaxInterval = time.Second
	b.MaxElapsedTime = timeout
	return backoff.WithContext(b, ctx)
}

// ReliableExec acquires a connection from the pool and runs f, retrying with
// exponential backoff until timeout. Permanent errors stop the retries.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	logger := zerolog.Ctx(ctx)
	return backoff.Retry(func() error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("error acquiring connection, retrying")
			return fmt.Errorf("error in pool.Acquire: %w", err)
		}
		defer conn.Release()
		err = f(ctx, conn)
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackoff(ctx, timeout))
}

// ReliableExecInTx is ReliableExec inside a cockroach transaction, which is
// itself retried on serialization failures by crdbpgx.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, f func(ctx context.Context, tx pgx.Tx) error) error {
	return backoff.Retry(func() error {
		err := crdbpgx.ExecuteTx(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return f(ctx, tx)
		})
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackoff(ctx, timeout))
}

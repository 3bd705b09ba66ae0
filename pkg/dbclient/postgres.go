package dbclient

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/ai-shell/internal/apperr"
)

type postgresClient struct {
	pool    *pgxpool.Pool
	tracker *validationTracker
}

func connectPostgres(ctx context.Context, dsn *ParsedDSN, opts Options) (Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn.Raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "dbclient.postgres.connect", "parsing DSN", err)
	}
	cfg.MinConns = int32(opts.MinPoolSize)
	cfg.MaxConns = int32(opts.MaxPoolSize)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.postgres.connect", "establishing pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.postgres.connect", "initial ping failed", err)
	}

	return &postgresClient{
		pool:    pool,
		tracker: newValidationTracker(string(KindPostgres), opts.ValidationWindow, opts.MaxValidationRetries),
	}, nil
}

func (c *postgresClient) Acquire(ctx context.Context, timeout time.Duration) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := validateAcquire(c.tracker, "dbclient.postgres.acquire",
		func() (*pgxpool.Conn, error) { return c.pool.Acquire(ctx) },
		func(pc *pgxpool.Conn) error { return pc.Ping(ctx) },
		func(pc *pgxpool.Conn) { pc.Release() },
	)
	if err != nil {
		return nil, err
	}

	return &Connection{id: nextConnID(), state: StateInUse, native: conn, lastValidated: time.Now()}, nil
}

func (c *postgresClient) Execute(ctx context.Context, conn *Connection, stmt string, params []any) (*Result, error) {
	pc := conn.native.(*pgxpool.Conn)
	rows, err := pc.Query(ctx, stmt, params...)
	if err != nil {
		conn.state = StateBroken
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.postgres.execute", "query failed", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var result Result
	result.Columns = cols
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.postgres.execute", "reading row", err)
		}
		row := make(Row, len(cols))
		for i, v := range vals {
			row[cols[i]] = v
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.postgres.execute", "iterating rows", err)
	}
	result.RowsAffected = rows.CommandTag().RowsAffected()
	return &result, nil
}

func (c *postgresClient) Release(conn *Connection) {
	if conn == nil || conn.state == StateIdle {
		return
	}
	pc := conn.native.(*pgxpool.Conn)
	if conn.state == StateBroken {
		pc.Conn().Close(context.Background())
	}
	pc.Release()
	conn.state = StateIdle
}

func (c *postgresClient) Health(ctx context.Context) HealthStatus {
	if fresh, ok := c.tracker.fresh(); fresh {
		if ok {
			return HealthStatus{Status: "healthy"}
		}
		return HealthStatus{Status: "unhealthy"}
	}
	start := time.Now()
	err := c.pool.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{Status: "unhealthy", LatencyMS: latency}
	}
	return HealthStatus{Status: "healthy", LatencyMS: latency}
}

func (c *postgresClient) Close() error {
	c.pool.Close()
	return nil
}

func (c *postgresClient) Kind() Kind { return KindPostgres }

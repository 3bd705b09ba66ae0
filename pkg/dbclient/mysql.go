package dbclient

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/wisbric/ai-shell/internal/apperr"
)

type mysqlClient struct {
	db      *sql.DB
	tracker *validationTracker
}

func connectMySQL(ctx context.Context, dsn *ParsedDSN, opts Options) (Client, error) {
	db, err := sql.Open("mysql", mysqlDSN(dsn.Raw))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "dbclient.mysql.connect", "opening pool", err)
	}
	db.SetMaxOpenConns(opts.MaxPoolSize)
	db.SetMaxIdleConns(opts.MinPoolSize)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.mysql.connect", "initial ping failed", err)
	}

	return &mysqlClient{
		db:      db,
		tracker: newValidationTracker(string(KindMySQL), opts.ValidationWindow, opts.MaxValidationRetries),
	}, nil
}

func (c *mysqlClient) Acquire(ctx context.Context, timeout time.Duration) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := validateAcquire(c.tracker, "dbclient.mysql.acquire",
		func() (*sql.Conn, error) { return c.db.Conn(ctx) },
		func(sc *sql.Conn) error { return sc.PingContext(ctx) },
		func(sc *sql.Conn) { sc.Close() },
	)
	if err != nil {
		return nil, err
	}
	return &Connection{id: nextConnID(), state: StateInUse, native: conn, lastValidated: time.Now()}, nil
}

func (c *mysqlClient) Execute(ctx context.Context, conn *Connection, stmt string, params []any) (*Result, error) {
	sc := conn.native.(*sql.Conn)
	rows, err := sc.QueryContext(ctx, stmt, params...)
	if err != nil {
		conn.state = StateBroken
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mysql.execute", "query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mysql.execute", "reading columns", err)
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mysql.execute", "scanning row", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = raw[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mysql.execute", "iterating rows", err)
	}
	return result, nil
}

func (c *mysqlClient) Release(conn *Connection) {
	if conn == nil || conn.state == StateIdle {
		return
	}
	sc := conn.native.(*sql.Conn)
	sc.Close()
	conn.state = StateIdle
}

func (c *mysqlClient) Health(ctx context.Context) HealthStatus {
	if fresh, ok := c.tracker.fresh(); fresh {
		if ok {
			return HealthStatus{Status: "healthy"}
		}
		return HealthStatus{Status: "unhealthy"}
	}
	start := time.Now()
	err := c.db.PingContext(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{Status: "unhealthy", LatencyMS: latency}
	}
	return HealthStatus{Status: "healthy", LatencyMS: latency}
}

func (c *mysqlClient) Close() error {
	return c.db.Close()
}

func (c *mysqlClient) Kind() Kind { return KindMySQL }

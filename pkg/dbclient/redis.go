package dbclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wisbric/ai-shell/internal/apperr"
)

type redisClient struct {
	rdb     *redis.Client
	tracker *validationTracker
}

func connectRedis(ctx context.Context, dsn *ParsedDSN, opts Options) (Client, error) {
	redisOpts, err := redis.ParseURL(dsn.Raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "dbclient.redis.connect", "parsing DSN", err)
	}
	redisOpts.PoolSize = opts.MaxPoolSize
	redisOpts.MinIdleConns = opts.MinPoolSize

	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.redis.connect", "initial ping failed", err)
	}

	return &redisClient{
		rdb:     rdb,
		tracker: newValidationTracker(string(KindRedis), opts.ValidationWindow, opts.MaxValidationRetries),
	}, nil
}

// Redis is connectionless from the caller's perspective (the driver owns
// its own internal pool); Acquire returns a handle over the shared client.
func (c *redisClient) Acquire(ctx context.Context, timeout time.Duration) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.tracker.validate(func() error { return c.rdb.Ping(ctx).Err() }); err != nil {
		return nil, err
	}
	return &Connection{id: nextConnID(), state: StateInUse, native: c.rdb, lastValidated: time.Now()}, nil
}

// Execute issues stmt as a Redis command name with params as its arguments,
// e.g. Execute(ctx, conn, "GET", []any{"key"}).
func (c *redisClient) Execute(ctx context.Context, conn *Connection, stmt string, params []any) (*Result, error) {
	args := make([]any, 0, len(params)+1)
	args = append(args, stmt)
	args = append(args, params...)

	cmd := c.rdb.Do(ctx, args...)
	val, err := cmd.Result()
	if err != nil && err != redis.Nil {
		conn.state = StateBroken
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.redis.execute", "command failed", err)
	}

	return &Result{Rows: []Row{{"value": fmt.Sprintf("%v", val)}}, Columns: []string{"value"}}, nil
}

func (c *redisClient) Release(conn *Connection) {
	if conn == nil {
		return
	}
	conn.state = StateIdle
}

func (c *redisClient) Health(ctx context.Context) HealthStatus {
	if fresh, ok := c.tracker.fresh(); fresh {
		if ok {
			return HealthStatus{Status: "healthy"}
		}
		return HealthStatus{Status: "unhealthy"}
	}
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{Status: "unhealthy", LatencyMS: latency}
	}
	return HealthStatus{Status: "healthy", LatencyMS: latency}
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}

func (c *redisClient) Kind() Kind { return KindRedis }

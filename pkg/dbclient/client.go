// Package dbclient implements the uniform Database Client contract
// (spec.md §4.3) over Postgres, MySQL, MongoDB, Redis, and SQLite.
package dbclient

import (
	"context"
	"time"
)

// Kind identifies which backend a DSN targets.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindMongo    Kind = "mongo"
	KindRedis    Kind = "redis"
	KindSQLite   Kind = "sqlite"
)

// Options configures a Client at connect time.
type Options struct {
	MinPoolSize    int
	MaxPoolSize    int
	AcquireTimeout time.Duration
	ValidationWindow time.Duration
	MaxValidationRetries int
	TLSInsecureSkipVerify bool
}

// DefaultOptions matches spec.md §4.3's stated defaults.
func DefaultOptions() Options {
	return Options{
		MinPoolSize:          2,
		MaxPoolSize:          10,
		AcquireTimeout:       5 * time.Second,
		ValidationWindow:     5 * time.Second,
		MaxValidationRetries: 3,
	}
}

// Row is a single result row, column name to driver-native value.
type Row map[string]any

// Result is the outcome of an Execute call.
type Result struct {
	Rows         []Row
	Columns      []string
	RowsAffected int64
}

// HealthStatus is the outcome of a Health check.
type HealthStatus struct {
	Status    string // "healthy", "degraded", "unhealthy"
	LatencyMS int64
}

// ConnState is the Connection state machine of spec.md §4.3.
type ConnState int

const (
	StateIdle ConnState = iota
	StateInUse
	StateBroken
)

// Connection is a borrowed handle returned by Acquire. Statements issued
// on the same Connection are serialised by the caller; the pool never
// reorders them (spec.md §5).
type Connection struct {
	id    int64
	state ConnState
	// native holds the driver-specific borrowed handle (*pgxpool.Conn,
	// *sql.Conn, *mongo.Client, *redis.Client, *sql.Conn for sqlite).
	native any
	// lastValidated is when this connection's liveness was last confirmed.
	lastValidated time.Time
}

func (c *Connection) State() ConnState { return c.state }
func (c *Connection) ID() int64        { return c.id }

// Client is the uniform contract every backend implements. No
// implementation keeps global state; each instance owns exactly one pool.
type Client interface {
	// Acquire returns a validated, borrowed Connection or fails with a
	// *apperr.Error of KindTimeout or KindUnavailable.
	Acquire(ctx context.Context, timeout time.Duration) (*Connection, error)

	// Execute runs a parameterised statement on conn. Params are always
	// passed to the driver positionally/named; they are never interpolated
	// into the statement string.
	Execute(ctx context.Context, conn *Connection, stmt string, params []any) (*Result, error)

	// Release returns conn to the pool if healthy, or discards and
	// replaces it otherwise. Idempotent: releasing an already-released
	// Connection is a no-op.
	Release(conn *Connection)

	// Health reports the pool's current status, reusing the last
	// validation result within Options.ValidationWindow.
	Health(ctx context.Context) HealthStatus

	// Close tears down the pool.
	Close() error

	Kind() Kind
}

package dbclient

import (
	"context"
	"fmt"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// Connector constructs a Client for one Kind from a parsed DSN.
type Connector func(ctx context.Context, dsn *ParsedDSN, opts Options) (Client, error)

// Registry holds one Connector per backend Kind, so Connect can dispatch on
// the DSN's scheme without a switch statement scattered through callers.
type Registry struct {
	connectors map[Kind]Connector
}

// NewRegistry builds a Registry with every built-in backend wired in.
func NewRegistry() *Registry {
	r := &Registry{connectors: make(map[Kind]Connector)}
	r.Register(KindPostgres, connectPostgres)
	r.Register(KindMySQL, connectMySQL)
	r.Register(KindMongo, connectMongo)
	r.Register(KindRedis, connectRedis)
	r.Register(KindSQLite, connectSQLite)
	return r
}

// Register adds or replaces the Connector for a Kind.
func (r *Registry) Register(k Kind, c Connector) {
	r.connectors[k] = c
}

// Connect parses dsn, picks the matching Connector, and returns a ready
// Client, or a typed error (spec.md §4.3: "Returns a ready client or fails
// with a typed error. No global state.").
func (r *Registry) Connect(ctx context.Context, dsn string, opts Options) (Client, error) {
	parsed, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, ok := r.connectors[parsed.Kind]
	if !ok {
		return nil, apperr.New(apperr.KindInvalidInput, "dbclient.connect", fmt.Sprintf("no connector registered for %q", parsed.Kind))
	}
	return connector(ctx, parsed, opts)
}

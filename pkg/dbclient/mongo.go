package dbclient

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wisbric/ai-shell/internal/apperr"
)

type mongoClient struct {
	client  *mongo.Client
	dbName  string
	tracker *validationTracker
}

func connectMongo(ctx context.Context, dsn *ParsedDSN, opts Options) (Client, error) {
	clientOpts := options.Client().ApplyURI(dsn.Raw).
		SetMinPoolSize(uint64(opts.MinPoolSize)).
		SetMaxPoolSize(uint64(opts.MaxPoolSize))

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.mongo.connect", "establishing client", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperr.Wrap(apperr.KindUnavailable, "dbclient.mongo.connect", "initial ping failed", err)
	}

	dbName := "admin"
	if dsn.URL != nil && len(dsn.URL.Path) > 1 {
		dbName = dsn.URL.Path[1:]
	}

	return &mongoClient{
		client:  client,
		dbName:  dbName,
		tracker: newValidationTracker(string(KindMongo), opts.ValidationWindow, opts.MaxValidationRetries),
	}, nil
}

// Mongo has no borrow-a-connection concept in its driver; Acquire returns a
// lightweight handle wrapping the shared client so the uniform contract
// still applies at the call site.
func (c *mongoClient) Acquire(ctx context.Context, timeout time.Duration) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.tracker.validate(func() error { return c.client.Ping(ctx, nil) }); err != nil {
		return nil, err
	}
	return &Connection{id: nextConnID(), state: StateInUse, native: c.client, lastValidated: time.Now()}, nil
}

// Execute runs a command document against the target database. stmt names
// the collection; params[0], if present, is the bson filter/command document.
func (c *mongoClient) Execute(ctx context.Context, conn *Connection, stmt string, params []any) (*Result, error) {
	var filter any = bson.D{}
	if len(params) > 0 {
		filter = params[0]
	}

	coll := c.client.Database(c.dbName).Collection(stmt)
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		conn.state = StateBroken
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mongo.execute", "find failed", err)
	}
	defer cursor.Close(ctx)

	var result Result
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mongo.execute", "decoding document", err)
		}
		row := make(Row, len(doc))
		for k, v := range doc {
			row[k] = v
		}
		result.Rows = append(result.Rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "dbclient.mongo.execute", "iterating cursor", err)
	}
	result.RowsAffected = int64(len(result.Rows))
	return &result, nil
}

func (c *mongoClient) Release(conn *Connection) {
	if conn == nil {
		return
	}
	conn.state = StateIdle
}

func (c *mongoClient) Health(ctx context.Context) HealthStatus {
	if fresh, ok := c.tracker.fresh(); fresh {
		if ok {
			return HealthStatus{Status: "healthy"}
		}
		return HealthStatus{Status: "unhealthy"}
	}
	start := time.Now()
	err := c.client.Ping(ctx, nil)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{Status: "unhealthy", LatencyMS: latency}
	}
	return HealthStatus{Status: "healthy", LatencyMS: latency}
}

func (c *mongoClient) Close() error {
	return c.client.Disconnect(context.Background())
}

func (c *mongoClient) Kind() Kind { return KindMongo }

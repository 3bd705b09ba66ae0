package dbclient

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteClient_ConnectAcquireExecuteRelease(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	client, err := reg.Connect(ctx, "sqlite://:memory:", DefaultOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	conn, err := client.Acquire(ctx, 5*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if conn.State() != StateInUse {
		t.Fatalf("State() = %v, want StateInUse", conn.State())
	}

	if _, err := client.Execute(ctx, conn, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)", nil); err != nil {
		t.Fatalf("Execute(create) error = %v", err)
	}
	if _, err := client.Execute(ctx, conn, "INSERT INTO widgets (name) VALUES (?)", []any{"sprocket"}); err != nil {
		t.Fatalf("Execute(insert) error = %v", err)
	}

	result, err := client.Execute(ctx, conn, "SELECT id, name FROM widgets", nil)
	if err != nil {
		t.Fatalf("Execute(select) error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(result.Rows))
	}
	if result.Rows[0]["name"] != "sprocket" {
		t.Errorf("Rows[0][name] = %v, want %q", result.Rows[0]["name"], "sprocket")
	}

	client.Release(conn)
	if conn.State() != StateIdle {
		t.Errorf("State() after Release = %v, want StateIdle", conn.State())
	}

	// Release is idempotent.
	client.Release(conn)

	status := client.Health(ctx)
	if status.Status != "healthy" {
		t.Errorf("Health().Status = %q, want %q", status.Status, "healthy")
	}
}

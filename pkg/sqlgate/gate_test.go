package sqlgate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wisbric/ai-shell/pkg/dbclient"
	"github.com/wisbric/ai-shell/pkg/eventbus"
)

func testBus(t *testing.T) *eventbus.Bus {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return eventbus.New(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), 64, time.Second)
}

func testClient(t *testing.T) dbclient.Client {
	t.Helper()
	reg := dbclient.NewRegistry()
	client, err := reg.Connect(context.Background(), "sqlite://:memory:", dbclient.DefaultOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	conn, err := client.Acquire(ctx, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := client.Execute(ctx, conn, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)", nil); err != nil {
		t.Fatalf("Execute(create) error = %v", err)
	}
	if _, err := client.Execute(ctx, conn, "INSERT INTO widgets (name) VALUES ('a'), ('b')", nil); err != nil {
		t.Fatalf("Execute(insert) error = %v", err)
	}
	client.Release(conn)
	return client
}

func TestGate_LowRiskExecutesWithoutConfirmation(t *testing.T) {
	bus := testBus(t)
	client := testClient(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(bus, nil, nil, nil, logger, time.Second)

	result, err := gate.Execute(context.Background(), "default", client, "SELECT * FROM widgets", false)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(result.Rows))
	}
}

func TestGate_HighRiskRequiresApproval(t *testing.T) {
	bus := testBus(t)
	client := testClient(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(bus, nil, nil, nil, logger, time.Second)

	bus.Subscribe("confirmation.required", func(ev eventbus.Event) {
		req := ev.Payload.(ConfirmationRequest)
		req.Respond(false)
	})

	_, err := gate.Execute(context.Background(), "default", client, "DELETE FROM widgets", false)
	if err == nil {
		t.Fatal("expected declined confirmation to produce an error")
	}
}

func TestGate_HighRiskProceedsOnApproval(t *testing.T) {
	bus := testBus(t)
	client := testClient(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(bus, nil, nil, nil, logger, time.Second)

	bus.Subscribe("confirmation.required", func(ev eventbus.Event) {
		req := ev.Payload.(ConfirmationRequest)
		req.Respond(true)
	})

	_, err := gate.Execute(context.Background(), "default", client, "DELETE FROM widgets", false)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestGate_CriticalWithoutForceIsRejected(t *testing.T) {
	bus := testBus(t)
	client := testClient(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(bus, nil, nil, nil, logger, time.Second)

	_, err := gate.Execute(context.Background(), "default", client, "DROP TABLE widgets", false)
	if err == nil {
		t.Fatal("expected CRITICAL statement without --force to be rejected")
	}
}

func TestGate_CriticalWithForceExecutes(t *testing.T) {
	bus := testBus(t)
	client := testClient(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(bus, nil, nil, nil, logger, time.Second)

	_, err := gate.Execute(context.Background(), "default", client, "DROP TABLE widgets", true)
	if err != nil {
		t.Fatalf("Execute() with force error = %v", err)
	}
}

package dbclient

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wisbric/ai-shell/internal/telemetry"
)

// fakeConn is a minimal pooled-connection stand-in used to exercise
// validateAcquire's discard-and-reacquire behavior without a real driver
// socket, matching spec.md §8 seed scenario 6: close the underlying socket
// of an idle pooled connection; the next Acquire returns a different,
// healthy connection and the reconnections counter increases by exactly 1.
type fakeConn struct {
	id     int
	broken bool
	closed bool
}

var errConnBroken = errors.New("connection closed")

func TestValidateAcquire_DiscardsBrokenConnectionAndReturnsHealthyReplacement(t *testing.T) {
	const dbType = "faketest-acquire"
	tracker := newValidationTracker(dbType, time.Minute, 3)

	// The pool hands back a broken connection first (its socket was closed
	// while idle), then a healthy one on the next acquire.
	pool := []*fakeConn{
		{id: 1, broken: true},
		{id: 2, broken: false},
	}
	var acquireCount int
	acquire := func() (*fakeConn, error) {
		conn := pool[acquireCount]
		acquireCount++
		return conn, nil
	}
	ping := func(c *fakeConn) error {
		if c.broken {
			return errConnBroken
		}
		return nil
	}
	var discarded []*fakeConn
	discard := func(c *fakeConn) {
		c.closed = true
		discarded = append(discarded, c)
	}

	before := testutil.ToFloat64(telemetry.PoolReconnectionsTotal.WithLabelValues(dbType))

	conn, err := validateAcquire(tracker, "dbclient.faketest.acquire", acquire, ping, discard)
	if err != nil {
		t.Fatalf("validateAcquire() error = %v", err)
	}
	if conn.id != 2 {
		t.Errorf("conn.id = %d, want 2 (the healthy replacement)", conn.id)
	}
	if len(discarded) != 1 || discarded[0].id != 1 {
		t.Errorf("discarded = %+v, want exactly the broken connection (id 1)", discarded)
	}
	if !pool[0].closed {
		t.Error("expected the broken connection to be closed/discarded")
	}
	if pool[1].closed {
		t.Error("expected the healthy replacement to remain open")
	}

	after := testutil.ToFloat64(telemetry.PoolReconnectionsTotal.WithLabelValues(dbType))
	if after-before != 1 {
		t.Errorf("PoolReconnectionsTotal increased by %v, want exactly 1", after-before)
	}
}

func TestValidateAcquire_FailsUnavailableAfterExhaustingRetries(t *testing.T) {
	const dbType = "faketest-exhausted"
	tracker := newValidationTracker(dbType, time.Minute, 3)

	acquire := func() (*fakeConn, error) { return &fakeConn{broken: true}, nil }
	ping := func(c *fakeConn) error { return errConnBroken }
	discard := func(c *fakeConn) { c.closed = true }

	_, err := validateAcquire(tracker, "dbclient.faketest.acquire", acquire, ping, discard)
	if err == nil {
		t.Fatal("expected an error once every retry has failed validation")
	}
}

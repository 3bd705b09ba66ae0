// Package enrichment implements the Enrichment Pipeline (spec.md §4.7):
// the hottest path, turning raw keystroke input into a panel.update event
// via intent analysis and a bounded fan-out of context gatherers.
package enrichment

import (
	"context"
	"time"

	"github.com/wisbric/ai-shell/pkg/llm"
)

// Request is one unit of work submitted by the keystroke producer.
type Request struct {
	SessionScope string // groups requests that supersede one another
	UserInput    string
	Context      llm.Context
	Priority     int
	SubmittedAt  time.Time
}

// Gatherer produces a piece of context for a panel update. It receives the
// triggering Request so it can tailor its probe to the user's input or cwd
// (e.g. searching the Vector Store for the token under the cursor).
// Gatherers that touch Database Clients must acquire their own connection;
// they never share a handle with another gatherer (spec.md §4.7 Concurrency).
type Gatherer func(ctx context.Context, req Request) (string, any)

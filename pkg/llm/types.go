// Package llm implements the LLM Manager (spec.md §4.5): a per-function
// provider router for intent analysis, completion, pseudonymisation, and
// embeddings, with retry/backoff and a rule-based degraded mode.
package llm

import "context"

// Intent is one of the enumerated primary intents the Enrichment Pipeline
// dispatches on (spec.md §4.7).
type Intent string

const (
	IntentFileOperation Intent = "file_operation"
	IntentDatabaseQuery Intent = "database_query"
	IntentVaultAccess   Intent = "vault_access"
	IntentNavigation    Intent = "navigation"
	IntentOther         Intent = "other"
)

// Context is the structured context accompanying intent analysis.
type Context struct {
	CWD           string
	CurrentModule string
	RecentHistory []string
}

// IntentResult is the LLM Manager's verdict on a piece of user input.
type IntentResult struct {
	PrimaryIntent Intent
	Confidence    float64 // always in [0,1]
}

// Provider is a single backend the manager can route a logical function to:
// a self-hosted endpoint, or one of the supported public APIs.
type Provider interface {
	Name() string
	AnalyzeIntent(ctx context.Context, text string, c Context) (IntentResult, error)
	Complete(ctx context.Context, prompt string) (string, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}

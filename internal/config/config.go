// Package config loads AI-Shell's runtime configuration from environment
// variables, following the env-var-first convention used throughout the
// runtime (spec.md §6).
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration. AI_SHELL_CONFIG may point at a
// YAML file that seeds these values before env vars are applied; YAML
// parsing itself is an external collaborator (spec.md §1) — this struct is
// the stable contract the loader populates either way.
type Config struct {
	// Output
	OutputFormat string `env:"AI_SHELL_OUTPUT_FORMAT" envDefault:"text"` // text|json|table|csv

	// Logging
	LogLevel  string `env:"AI_SHELL_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"AI_SHELL_LOG_FORMAT" envDefault:"json"`

	// Telemetry
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	MetricsAddr  string `env:"AI_SHELL_METRICS_ADDR"` // empty disables the loopback metrics server

	// Persisted state (spec.md §6)
	StateDir string `env:"AI_SHELL_STATE_DIR" envDefault:"~/.ai-shell"`

	// Vault
	VaultKeystoreEntry string `env:"AI_SHELL_VAULT_KEY" envDefault:"ai-shell-vault"`
	VaultPBKDF2Iters   int    `env:"AI_SHELL_VAULT_PBKDF2_ITERS" envDefault:"100000"`

	// Enrichment pipeline
	StalenessWindow    time.Duration `env:"AI_SHELL_STALENESS_WINDOW" envDefault:"1s"`
	GathererDeadline   time.Duration `env:"AI_SHELL_GATHERER_DEADLINE" envDefault:"250ms"`
	EnrichmentQueueCap int           `env:"AI_SHELL_ENRICHMENT_QUEUE_CAP" envDefault:"64"`

	// Event bus
	EventBusHighWaterMark int           `env:"AI_SHELL_EVENTBUS_HWM" envDefault:"1024"`
	EventBusCriticalWait  time.Duration `env:"AI_SHELL_EVENTBUS_CRITICAL_WAIT" envDefault:"2s"`

	// Database pools (defaults per spec.md §4.3)
	PoolMinSize           int           `env:"AI_SHELL_POOL_MIN" envDefault:"2"`
	PoolMaxSize           int           `env:"AI_SHELL_POOL_MAX" envDefault:"10"`
	PoolAcquireTimeout    time.Duration `env:"AI_SHELL_POOL_ACQUIRE_TIMEOUT" envDefault:"5s"`
	PoolValidationWindow  time.Duration `env:"AI_SHELL_POOL_VALIDATION_WINDOW" envDefault:"5s"`
	PoolMaxValidationTries int          `env:"AI_SHELL_POOL_MAX_VALIDATION_RETRIES" envDefault:"3"`

	// LLM Manager deadlines (spec.md §5: "LLM calls respect a separate,
	// shorter deadline than database calls")
	LLMDeadline     time.Duration `env:"AI_SHELL_LLM_DEADLINE" envDefault:"3s"`
	LLMRetryCeiling int           `env:"AI_SHELL_LLM_RETRY_CEILING" envDefault:"3"`

	// Completer
	CompletionDeadline time.Duration `env:"AI_SHELL_COMPLETION_DEADLINE" envDefault:"50ms"`

	// Provider API keys — names resolved dynamically from config, never
	// hard-coded (spec.md §6). ApiKeyEnv maps logical function name
	// ("intent", "complete", "embed", "anonymise") to the env var holding
	// that provider's API key.
	ApiKeyEnv map[string]string `env:"-"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	if cfg.ApiKeyEnv == nil {
		cfg.ApiKeyEnv = map[string]string{}
	}
	return cfg, nil
}

package runtime

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wisbric/ai-shell/internal/config"
	"github.com/wisbric/ai-shell/internal/history"
	"github.com/wisbric/ai-shell/internal/telemetry"
	"github.com/wisbric/ai-shell/pkg/completer"
	"github.com/wisbric/ai-shell/pkg/dbclient"
	"github.com/wisbric/ai-shell/pkg/enrichment"
	"github.com/wisbric/ai-shell/pkg/eventbus"
	"github.com/wisbric/ai-shell/pkg/llm"
	"github.com/wisbric/ai-shell/pkg/panel"
	"github.com/wisbric/ai-shell/pkg/sqlgate"
	"github.com/wisbric/ai-shell/pkg/vault"
	"github.com/wisbric/ai-shell/pkg/vectorstore"
)

// System is the fully-wired set of components an invocation of the shell
// needs, plus the registry that governs their lifecycle.
type System struct {
	Config      *config.Config
	Logger      *slog.Logger
	Bus         *eventbus.Bus
	Vault       *vault.Vault
	DBRegistry  *dbclient.Registry
	Connections *ConnectionSet
	VectorStore *vectorstore.Store
	LLM         *llm.Manager
	Enrichment  *enrichment.Pipeline
	Completer   *completer.Completer
	Gate        *sqlgate.Gate
	History     *history.Writer

	registry         *Registry
	tracerShutdown   func(context.Context) error
	shutdownDeadline time.Duration
	metricsServer    *telemetry.Server
	stateDir         string
}

// StateDir returns the resolved (home-expanded) persisted-state directory
// backing the vault, vector store, connections, and history files.
func (s *System) StateDir() string { return s.stateDir }

// healthAdapter satisfies telemetry.HealthChecker by reshaping SystemHealth
// into the string/map form the loopback /healthz handler expects, without
// telemetry needing to import runtime (which already imports telemetry).
type healthAdapter struct{ sys *System }

func (a healthAdapter) Health(ctx context.Context) (string, map[string]string) {
	h := a.sys.Health(ctx)
	detail := make(map[string]string, len(h.Checks))
	for name, r := range h.Checks {
		detail[name] = string(r.Status)
	}
	return string(h.Status), detail
}

// embeddingDimension is fixed for the lifetime of a vector store snapshot
// (spec.md §4.4); 256 matches the HTTPProvider embedding contract this
// runtime wires by default.
const embeddingDimension = 256

// Build constructs every component in dependency order — logging and
// tracing first, then the vault (nothing else can run without it failing
// closed the same way), then the stateless analyzers, then the components
// that depend on them — and registers each as a Module so Health and
// Shutdown can walk them uniformly. This mirrors the teacher's Run: set up
// observability, then storage, then the mode-specific wiring.
func Build(ctx context.Context, cfg *config.Config) (*System, error) {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	tracerShutdown, _ := telemetry.InitTracer(ctx, "ai-shell")

	stateDir := expandHome(cfg.StateDir)
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, err
	}

	sys := &System{
		Config:           cfg,
		Logger:           logger,
		registry:         NewRegistry(),
		tracerShutdown:   tracerShutdown,
		shutdownDeadline: 10 * time.Second,
		stateDir:         stateDir,
	}

	bus := eventbus.New(ctx, logger, cfg.EventBusHighWaterMark, cfg.EventBusCriticalWait)
	sys.Bus = bus
	if err := sys.registry.RegisterModule("eventbus", &fn{
		name:  "eventbus",
		start: func(context.Context) error { return nil },
		stop:  noopStop,
		health: func(context.Context) HealthResult {
			return HealthResult{Status: StatusHealthy}
		},
	}); err != nil {
		return nil, err
	}

	v, err := vault.Open(vault.EnvKeystore{}, cfg.VaultKeystoreEntry, cfg.VaultPBKDF2Iters,
		vault.NewFilePersister(filepath.Join(stateDir, "vault.db")), logger)
	if err != nil {
		return nil, err
	}
	sys.Vault = v
	if err := sys.registry.RegisterModule("vault", &fn{
		name:  "vault",
		start: func(context.Context) error { return nil },
		stop:  noopStop,
		health: func(context.Context) HealthResult {
			v.Names() // vault is memory-resident once Open succeeds; this just proves the lock isn't wedged.
			return HealthResult{Status: StatusHealthy}
		},
	}); err != nil {
		return nil, err
	}

	dbRegistry := dbclient.NewRegistry()
	sys.DBRegistry = dbRegistry
	sys.Connections = NewConnectionSet(filepath.Join(stateDir, "connections.gob"))
	if err := sys.registry.RegisterModule("dbclient", &fn{
		name:   "dbclient",
		start:  func(context.Context) error { return nil },
		stop:   func(ctx context.Context) error { return sys.Connections.CloseAll() },
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	store := vectorstore.New(embeddingDimension)
	if snap, loadErr := vectorstore.LoadSnapshot(filepath.Join(stateDir, "vectorstore.gob"), embeddingDimension); loadErr == nil {
		store = snap
	}
	sys.VectorStore = store
	if err := sys.registry.RegisterModule("vectorstore", &fn{
		name:  "vectorstore",
		start: func(context.Context) error { return nil },
		stop: func(context.Context) error {
			return store.SaveSnapshot(filepath.Join(stateDir, "vectorstore.gob"))
		},
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	llmRegistry := llm.NewRegistry()
	wireProviders(llmRegistry, cfg)
	manager := llm.NewManager(llmRegistry, bus, logger, cfg.LLMRetryCeiling, cfg.LLMDeadline, 512)
	sys.LLM = manager
	if err := sys.registry.RegisterModule("llm", &fn{
		name:  "llm",
		start: func(context.Context) error { return nil },
		stop:  noopStop,
		health: func(context.Context) HealthResult {
			if len(llmRegistry.All()) == 0 {
				return HealthResult{Status: StatusDegraded, Detail: "no providers configured, degraded rule-based fallback only"}
			}
			return HealthResult{Status: StatusHealthy}
		},
	}); err != nil {
		return nil, err
	}

	pipeline := enrichment.New(manager, bus, logger, defaultGatherers(sys), cfg.EnrichmentQueueCap, cfg.StalenessWindow, cfg.GathererDeadline)
	sys.Enrichment = pipeline
	if err := sys.registry.RegisterModule("enrichment", &fn{
		name: "enrichment",
		start: func(ctx context.Context) error {
			go pipeline.Run(ctx)
			return nil
		},
		stop:   noopStop,
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	comp := completer.New(v, store, manager, cfg.CompletionDeadline)
	sys.Completer = comp
	if err := sys.registry.RegisterModule("completer", &fn{
		name:   "completer",
		start:  func(context.Context) error { return nil },
		stop:   noopStop,
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	historyWriter := history.NewWriter(filepath.Join(stateDir, "history.gob"), logger)
	sys.History = historyWriter
	if err := sys.registry.RegisterModule("history", &fn{
		name: "history",
		start: func(ctx context.Context) error {
			historyWriter.Start(ctx)
			return nil
		},
		stop: func(context.Context) error {
			historyWriter.Close()
			return nil
		},
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	gate := sqlgate.New(bus, v, manager, historyWriter, logger, cfg.PoolAcquireTimeout)
	sys.Gate = gate
	if err := sys.registry.RegisterModule("sqlgate", &fn{
		name:   "sqlgate",
		start:  func(context.Context) error { return nil },
		stop:   noopStop,
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	metricsRegistry := telemetry.NewMetricsRegistry(telemetry.All()...)
	sys.metricsServer = telemetry.NewServer(cfg.MetricsAddr, logger, metricsRegistry, healthAdapter{sys: sys})
	if err := sys.registry.RegisterModule("metrics-server", &fn{
		name: "metrics-server",
		start: func(context.Context) error {
			sys.metricsServer.Start()
			return nil
		},
		stop: func(ctx context.Context) error {
			return sys.metricsServer.Shutdown(ctx)
		},
		health: alwaysHealthy,
	}); err != nil {
		return nil, err
	}

	return sys, nil
}

// Start runs every module's Start hook in registration order. If one fails,
// everything already started is torn down before the error is returned —
// a partially-wired system is never left running.
func (s *System) Start(ctx context.Context) error {
	started := make([]Module, 0, len(s.registry.Ordered()))
	for _, m := range s.registry.Ordered() {
		if err := m.Start(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].Stop(ctx)
			}
			return err
		}
		started = append(started, m)
	}
	return nil
}

// SystemHealth is the aggregate health report of spec.md §4.11: the
// rolled-up Status is the worst of any individual check.
type SystemHealth struct {
	Status Status
	Checks map[string]HealthResult
}

func (s *System) Health(ctx context.Context) SystemHealth {
	checks := make(map[string]HealthResult)
	worst := StatusHealthy
	for _, m := range s.registry.Ordered() {
		r := m.Health(ctx)
		checks[m.Name()] = r
		if r.Status == StatusUnhealthy {
			worst = StatusUnhealthy
		} else if r.Status == StatusDegraded && worst != StatusUnhealthy {
			worst = StatusDegraded
		}
	}
	return SystemHealth{Status: worst, Checks: checks}
}

// Shutdown stops every module in reverse construction order, each under a
// share of the overall deadline; a module that blows its share is logged
// and abandoned rather than allowed to wedge the rest of the sequence.
func (s *System) Shutdown(ctx context.Context) {
	deadline, cancel := context.WithTimeout(ctx, s.shutdownDeadline)
	defer cancel()

	for _, m := range s.registry.Reversed() {
		done := make(chan error, 1)
		go func(m Module) { done <- m.Stop(deadline) }(m)
		select {
		case err := <-done:
			if err != nil {
				s.Logger.Error("module shutdown error", "module", m.Name(), "error", err)
			}
		case <-deadline.Done():
			s.Logger.Warn("module shutdown abandoned at deadline", "module", m.Name())
		}
	}

	if s.tracerShutdown != nil {
		_ = s.tracerShutdown(context.Background())
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

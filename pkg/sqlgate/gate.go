// Package sqlgate implements the SQL Execution Gate (spec.md §4.10): the
// single entry point for executing user-typed SQL.
package sqlgate

import (
	"context"
	"log/slog"
	"time"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/history"
	"github.com/wisbric/ai-shell/internal/telemetry"
	"github.com/wisbric/ai-shell/pkg/dbclient"
	"github.com/wisbric/ai-shell/pkg/eventbus"
	"github.com/wisbric/ai-shell/pkg/llm"
	"github.com/wisbric/ai-shell/pkg/risk"
)

// Redactor auto-redacts vault-known plaintexts out of raw SQL before it is
// written to history (spec.md §4.10 step 4).
type Redactor interface {
	AutoRedact(text string) string
}

// ConfirmationRequest is the payload of a confirmation.required event. The
// subscriber (the UI) must call Respond exactly once.
type ConfirmationRequest struct {
	SQL     string
	Level   risk.Level
	Respond func(approved bool)
}

// Gate is the single component permitted to execute user-typed SQL.
type Gate struct {
	analyzer *risk.Analyzer
	bus      *eventbus.Bus
	vault    Redactor
	manager  *llm.Manager
	history  *history.Writer
	logger   *slog.Logger

	acquireTimeout time.Duration
}

func New(bus *eventbus.Bus, vault Redactor, manager *llm.Manager, hist *history.Writer, logger *slog.Logger, acquireTimeout time.Duration) *Gate {
	return &Gate{
		analyzer:       risk.NewAnalyzer(),
		bus:            bus,
		vault:          vault,
		manager:        manager,
		history:        hist,
		logger:         logger,
		acquireTimeout: acquireTimeout,
	}
}

// Execute runs sql against client, enforcing the risk-gated confirmation
// sequence of spec.md §4.10. force stands in for the CLI's --force flag /
// an equivalent acknowledgment token, required for CRITICAL statements.
func (g *Gate) Execute(ctx context.Context, connName string, client dbclient.Client, sql string, force bool) (*dbclient.Result, error) {
	assessment := g.analyzer.Classify(sql, nil)

	if assessment.Level == risk.LevelCritical {
		// --force (or an equivalent acknowledgment token) stands in for
		// interactive confirmation on CRITICAL statements; it does not
		// additionally require one.
		if !force {
			return nil, apperr.New(apperr.KindRiskRejected, "sqlgate.execute",
				"CRITICAL statements require --force or an equivalent acknowledgment token")
		}
	} else if assessment.Level == risk.LevelHigh {
		approved, err := g.requestConfirmation(sql, assessment.Level)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, apperr.New(apperr.KindRiskRejected, "sqlgate.execute", "user declined confirmation")
		}
	}

	conn, err := client.Acquire(ctx, g.acquireTimeout)
	if err != nil {
		g.recordFailure(connName, sql, assessment, err, 0)
		return nil, err
	}
	defer client.Release(conn)

	start := time.Now()
	result, execErr := client.Execute(ctx, conn, sql, nil)
	elapsed := time.Since(start)
	if execErr != nil {
		g.recordFailure(connName, sql, assessment, execErr, elapsed)
		return nil, execErr
	}

	g.recordSuccess(connName, sql, assessment, result, elapsed)
	return result, nil
}

func (g *Gate) requestConfirmation(sql string, level risk.Level) (bool, error) {
	type outcome struct {
		approved bool
	}
	resultCh := make(chan outcome, 1)

	err := g.bus.Publish(eventbus.Event{
		Topic:    "confirmation.required",
		Priority: eventbus.PriorityCritical,
		Payload: ConfirmationRequest{
			SQL:   sql,
			Level: level,
			Respond: func(approved bool) {
				select {
				case resultCh <- outcome{approved: approved}:
				default:
				}
			},
		},
	})
	if err != nil {
		return false, err
	}

	select {
	case o := <-resultCh:
		return o.approved, nil
	default:
		// No subscriber responded synchronously within the critical
		// publish's own wait; treat silence as a decline rather than
		// hanging the gate.
		return false, nil
	}
}

func (g *Gate) recordSuccess(connName, sql string, assessment risk.Assessment, result *dbclient.Result, elapsed time.Duration) {
	telemetry.QueriesExecutedTotal.WithLabelValues(assessment.Level.String(), "success").Inc()

	redacted := sql
	if g.vault != nil {
		redacted = g.vault.AutoRedact(sql)
	}
	if g.history != nil {
		g.history.Log(history.Record{
			Connection:   connName,
			SQL:          redacted,
			RiskLevel:    assessment.Level.String(),
			Success:      true,
			RowsAffected: result.RowsAffected,
			DurationMS:   elapsed.Milliseconds(),
		})
	}
	_ = g.bus.Publish(eventbus.Event{
		Topic:    "query.completed",
		Priority: eventbus.PriorityNormal,
		Payload:  map[string]any{"connection": connName, "risk_level": assessment.Level.String()},
	})
}

func (g *Gate) recordFailure(connName, sql string, assessment risk.Assessment, execErr error, elapsed time.Duration) {
	telemetry.QueriesExecutedTotal.WithLabelValues(assessment.Level.String(), "failure").Inc()

	redacted := sql
	if g.vault != nil {
		redacted = g.vault.AutoRedact(sql)
	}

	explanation := ""
	if g.manager != nil {
		explainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		explanation = g.manager.Complete(explainCtx, "Briefly explain this SQL error: "+execErr.Error())
		cancel()
	}

	if g.history != nil {
		g.history.Log(history.Record{
			Connection: connName,
			SQL:        redacted,
			RiskLevel:  assessment.Level.String(),
			Success:    false,
			Error:      execErr.Error(),
			DurationMS: elapsed.Milliseconds(),
		})
	}
	_ = g.bus.Publish(eventbus.Event{
		Topic:    "query.failed",
		Priority: eventbus.PriorityNormal,
		Payload:  map[string]any{"connection": connName, "error": execErr.Error(), "explanation": explanation},
	})
}

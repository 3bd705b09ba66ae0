// Command ai-shell is the interactive DB-admin terminal entrypoint: it
// wires the full runtime (vault, risk analyzer, pooled db clients, vector
// store, LLM manager, event bus, enrichment pipeline, panel layout,
// completer, SQL gate) and exposes it through the subcommands in rootCmd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/config"
	"github.com/wisbric/ai-shell/internal/runtime"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ai-shell: loading configuration: %v\n", err)
		return 1
	}

	sys, err := runtime.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ai-shell: %v\n", err)
		return apperr.ExitCode(err)
	}
	if err := sys.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ai-shell: starting: %v\n", err)
		return apperr.ExitCode(err)
	}
	defer sys.Shutdown(context.Background())

	cmd := newRootCmd(sys)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ai-shell: %v\n", err)
		return apperr.ExitCode(err)
	}
	return 0
}

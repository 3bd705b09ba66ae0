package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/runtime"
)

func newHealthCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report per-component health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := sys.Health(cmd.Context())
			rows := make([]map[string]string, 0, len(h.Checks))
			for name, r := range h.Checks {
				rows = append(rows, map[string]string{"component": name, "status": string(r.Status), "detail": r.Detail})
			}
			if err := writeOutput([]string{"component", "status", "detail"}, rows); err != nil {
				return err
			}
			if h.Status == runtime.StatusUnhealthy {
				return apperr.New(apperr.KindUnavailable, "cli.health", "one or more components are unhealthy")
			}
			return nil
		},
	}
}

func newStatusCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize overall system status and the active connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := sys.Health(cmd.Context())
			active := sys.Connections.Active()
			if active == "" {
				active = "(none)"
			}
			row := map[string]string{
				"status":             string(h.Status),
				"active_connection":  active,
				"connections":        fmt.Sprintf("%d", len(sys.Connections.Names())),
				"vault_credentials":  fmt.Sprintf("%d", len(sys.Vault.Names())),
				"vector_store_count": fmt.Sprintf("%d", sys.VectorStore.Len()),
			}
			return writeOutput([]string{"status", "active_connection", "connections", "vault_credentials", "vector_store_count"}, []map[string]string{row})
		},
	}
}

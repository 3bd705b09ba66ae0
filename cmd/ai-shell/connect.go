package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/runtime"
	"github.com/wisbric/ai-shell/pkg/dbclient"
)

func newConnectCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <name> <dsn>",
		Short: "Register a named database connection target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, dsn := args[0], args[1]
			parsed, err := dbclient.ParseDSN(dsn)
			if err != nil {
				return err
			}
			if flags.dryRun {
				fmt.Printf("would register connection %q (%s)\n", name, parsed.Kind)
				return nil
			}
			if err := sys.Connections.Add(name, dsn, parsed.Kind); err != nil {
				return err
			}
			verbosef("registered connection %q as %s", name, parsed.Kind)
			return writeOutput([]string{"name", "kind"}, []map[string]string{{"name": name, "kind": string(parsed.Kind)}})
		},
	}
}

func newDisconnectCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <name>",
		Short: "Forget a registered connection and close its live client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				fmt.Printf("would disconnect %q\n", args[0])
				return nil
			}
			return sys.Connections.Remove(args[0])
		},
	}
}

func newUseCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				fmt.Printf("would switch active connection to %q\n", args[0])
				return nil
			}
			return sys.Connections.Use(args[0])
		},
	}
}

func newConnectionsCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List registered connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active := sys.Connections.Active()
			records := sys.Connections.Records()
			rows := make([]map[string]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, map[string]string{
					"name":     r.Name,
					"kind":     string(r.Kind),
					"active":   fmt.Sprintf("%v", r.Name == active),
					"added_at": r.AddedAt.Format("2006-01-02T15:04:05Z07:00"),
				})
			}
			return writeOutput([]string{"name", "kind", "active", "added_at"}, rows)
		},
	}
}

// activeConnectionName returns the name of the currently active connection,
// or an invalid-argument error if none is set.
func activeConnectionName(sys *runtime.System) (string, error) {
	name := sys.Connections.Active()
	if name == "" {
		return "", apperr.New(apperr.KindInvalidInput, "cli.resolve_connection", "no active connection; run `ai-shell use <name>` or `ai-shell connect` first")
	}
	return name, nil
}

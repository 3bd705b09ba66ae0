package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/runtime"
	"github.com/wisbric/ai-shell/pkg/dbclient"
)

// catalogQuery returns the statement that lists indexes for the active
// connection's backend kind. Index introspection has no common SQL syntax
// across engines, so the Gate classifies whatever comes back the same way
// it classifies any other read-only statement.
func catalogQuery(kind dbclient.Kind, table string) string {
	switch kind {
	case dbclient.KindPostgres:
		if table == "" {
			return "SELECT indexname, tablename FROM pg_indexes"
		}
		return fmt.Sprintf("SELECT indexname FROM pg_indexes WHERE tablename = '%s'", table)
	case dbclient.KindMySQL:
		if table == "" {
			return "SHOW INDEX FROM information_schema.statistics"
		}
		return fmt.Sprintf("SHOW INDEX FROM %s", table)
	case dbclient.KindSQLite:
		if table == "" {
			return "SELECT name, tbl_name FROM sqlite_master WHERE type = 'index'"
		}
		return fmt.Sprintf("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = '%s'", table)
	default:
		return "SELECT 1"
	}
}

func newIndexesCmd(sys *runtime.System) *cobra.Command {
	root := &cobra.Command{
		Use:   "indexes",
		Short: "Inspect and manage indexes on the active connection",
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "list [table]",
			Short: "List indexes, optionally scoped to a table",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := activeConnectionName(sys)
				if err != nil {
					return err
				}
				rec, _ := sys.Connections.Record(name)
				table := ""
				if len(args) == 1 {
					table = args[0]
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
				defer cancel()
				client, err := sys.Connections.Client(ctx, sys.DBRegistry, name)
				if err != nil {
					return err
				}
				result, err := sys.Gate.Execute(ctx, name, client, catalogQuery(rec.Kind, table), false)
				if err != nil {
					return err
				}
				cols, rows := resultRows(result)
				return writeOutput(cols, rows)
			},
		},
		&cobra.Command{
			Use:   "create <table> <column...>",
			Short: "Create an index (CREATE INDEX, routed through the risk gate)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDDL(cmd, sys, fmt.Sprintf("CREATE INDEX idx_%s ON %s (%s)", args[0], args[0], joinArgs(args[1:])))
			},
		},
		&cobra.Command{
			Use:   "drop <index-name>",
			Short: "Drop an index (DROP INDEX, CRITICAL risk — requires --force)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDDL(cmd, sys, "DROP INDEX "+args[0])
			},
		},
		&cobra.Command{
			Use:   "analyze <table>",
			Short: "Refresh planner statistics for a table",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDDL(cmd, sys, "ANALYZE "+args[0])
			},
		},
	)
	return root
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += ", " + a
	}
	return out
}

func runDDL(cmd *cobra.Command, sys *runtime.System, stmt string) error {
	name, err := activeConnectionName(sys)
	if err != nil {
		return err
	}
	if flags.dryRun {
		fmt.Printf("would execute against %q: %s\n", name, stmt)
		return nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()
	client, err := sys.Connections.Client(ctx, sys.DBRegistry, name)
	if err != nil {
		return err
	}
	if _, err := sys.Gate.Execute(ctx, name, client, stmt, flags.confirm); err != nil {
		return err
	}
	return writeOutput([]string{"status"}, []map[string]string{{"status": "ok"}})
}

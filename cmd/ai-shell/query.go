package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/runtime"
	"github.com/wisbric/ai-shell/pkg/dbclient"
)

func resultRows(result *dbclient.Result) ([]string, []map[string]string) {
	cols := result.Columns
	rows := make([]map[string]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		row := make(map[string]string, len(cols))
		for _, c := range cols {
			row[c] = fmt.Sprintf("%v", r[c])
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func newQueryCmd(sys *runtime.System) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute a SQL statement against the active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := activeConnectionName(sys)
			if err != nil {
				return err
			}
			if flags.dryRun {
				fmt.Printf("would execute against %q: %s\n", name, args[0])
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := sys.Connections.Client(ctx, sys.DBRegistry, name)
			if err != nil {
				return err
			}
			result, err := sys.Gate.Execute(ctx, name, client, args[0], force || flags.confirm)
			if err != nil {
				return err
			}
			cols, rows := resultRows(result)
			if len(cols) == 0 {
				return writeOutput([]string{"rows_affected"}, []map[string]string{{"rows_affected": strconv.FormatInt(result.RowsAffected, 10)}})
			}
			return writeOutput(cols, rows)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "acknowledge a CRITICAL statement without an interactive prompt")
	return cmd
}

func newExplainCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <sql>",
		Short: "Show the execution plan for a SQL statement (always LOW risk)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := activeConnectionName(sys)
			if err != nil {
				return err
			}
			stmt := args[0]
			if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "EXPLAIN") {
				stmt = "EXPLAIN " + stmt
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := sys.Connections.Client(ctx, sys.DBRegistry, name)
			if err != nil {
				return err
			}
			result, err := sys.Gate.Execute(ctx, name, client, stmt, false)
			if err != nil {
				return err
			}
			cols, rows := resultRows(result)
			return writeOutput(cols, rows)
		},
	}
}

func newOptimizeCmd(sys *runtime.System) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <sql>",
		Short: "Ask the LLM Manager for optimization suggestions for a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			suggestion := sys.LLM.Complete(ctx, "Suggest indexing or rewrite improvements for this SQL statement:\n"+args[0])
			if suggestion == "" {
				suggestion = "no suggestion available (LLM provider degraded or unconfigured)"
			}
			return writeOutput([]string{"suggestion"}, []map[string]string{{"suggestion": suggestion}})
		},
	}
}

func newSlowQueriesCmd(sys *runtime.System) *cobra.Command {
	var limit int
	var minMS int64
	cmd := &cobra.Command{
		Use:   "slow-queries",
		Short: "List recent executed statements above a duration threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs := sys.History.Recent(limit)
			rows := make([]map[string]string, 0, len(recs))
			for _, r := range recs {
				if r.DurationMS < minMS {
					continue
				}
				rows = append(rows, map[string]string{
					"connection":  r.Connection,
					"sql":         r.SQL,
					"duration_ms": strconv.FormatInt(r.DurationMS, 10),
					"risk_level":  r.RiskLevel,
					"success":     strconv.FormatBool(r.Success),
				})
			}
			return writeOutput([]string{"connection", "sql", "duration_ms", "risk_level", "success"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "number of recent history records to scan")
	cmd.Flags().Int64Var(&minMS, "min-ms", 100, "minimum duration in milliseconds to include")
	return cmd
}

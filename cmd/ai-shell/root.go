package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/runtime"
)

// globalFlags mirrors the stable CLI contract's global flag set. Every
// subcommand reads from this struct rather than re-declaring the flags.
type globalFlags struct {
	format  string // text|json|table|csv
	output  string
	verbose bool
	dryRun  bool
	confirm bool
	timeout time.Duration
}

var flags globalFlags

func newRootCmd(sys *runtime.System) *cobra.Command {
	root := &cobra.Command{
		Use:           "ai-shell",
		Short:         "Interactive, LLM-augmented database administration shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.format, "format", "text", "output format: text|json|table|csv")
	root.PersistentFlags().StringVar(&flags.output, "output", "", "write output to this path instead of stdout")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "enable verbose diagnostics on stderr")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "describe the action without performing it")
	root.PersistentFlags().BoolVar(&flags.confirm, "confirm", false, "pre-approve a confirmation-required action (HIGH risk)")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "per-command timeout")

	root.AddCommand(
		newConnectCmd(sys),
		newDisconnectCmd(sys),
		newUseCmd(sys),
		newConnectionsCmd(sys),
		newQueryCmd(sys),
		newExplainCmd(sys),
		newOptimizeCmd(sys),
		newSlowQueriesCmd(sys),
		newIndexesCmd(sys),
		newBackupCmd(sys),
		newVaultCmd(sys),
		newHealthCmd(sys),
		newStatusCmd(sys),
	)

	return root
}

// writeOutput renders rows in the requested --format and writes to --output
// (or stdout). columns defines both order and table/csv headers.
func writeOutput(columns []string, rows []map[string]string) error {
	var w io.Writer = os.Stdout
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("opening --output path: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(flags.format) {
	case "json":
		return json.NewEncoder(w).Encode(rows)
	case "csv":
		cw := csv.NewWriter(w)
		defer cw.Flush()
		if err := cw.Write(columns); err != nil {
			return err
		}
		for _, r := range rows {
			rec := make([]string, len(columns))
			for i, c := range columns {
				rec[i] = r[c]
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(columns, "\t"))
		for _, r := range rows {
			vals := make([]string, len(columns))
			for i, c := range columns {
				vals[i] = r[c]
			}
			fmt.Fprintln(tw, strings.Join(vals, "\t"))
		}
		return tw.Flush()
	default: // text
		for _, r := range rows {
			parts := make([]string, 0, len(columns))
			for _, c := range columns {
				parts = append(parts, fmt.Sprintf("%s=%s", c, r[c]))
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
		}
		return nil
	}
}

func verbosef(format string, args ...any) {
	if flags.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

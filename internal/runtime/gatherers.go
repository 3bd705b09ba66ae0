package runtime

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/wisbric/ai-shell/pkg/enrichment"
	"github.com/wisbric/ai-shell/pkg/llm"
)

// defaultGatherers wires the per-intent context gatherers the Enrichment
// Pipeline fans out to (spec.md §4.7 step 3). Each one only reads
// already-built components and is bounded by the pipeline's per-gatherer
// deadline; none of them block the keystroke producer.
func defaultGatherers(sys *System) enrichment.GathererSet {
	return enrichment.GathererSet{
		llm.IntentFileOperation: {
			diskUsageGatherer,
			cwdListingGatherer,
		},
		llm.IntentDatabaseQuery: {
			activeConnectionCountGatherer(sys),
			matchingTableCandidatesGatherer(sys),
			recentHistoryGatherer(sys, 5),
		},
		llm.IntentVaultAccess: {
			matchingCredentialNamesGatherer(sys),
		},
		llm.IntentNavigation: {
			systemSnapshotGatherer(sys),
		},
		llm.IntentOther: {
			systemSnapshotGatherer(sys),
		},
	}
}

// diskUsageGatherer reports free/total bytes on the filesystem backing cwd.
func diskUsageGatherer(ctx context.Context, req enrichment.Request) (string, any) {
	dir := req.Context.CWD
	if dir == "" {
		dir = "."
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return "disk_usage", nil
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	return "disk_usage", fmt.Sprintf("%d/%d bytes free", free, total)
}

// cwdListingGatherer lists the immediate contents of cwd, bounded so a
// directory with thousands of entries can't blow the gatherer deadline.
func cwdListingGatherer(ctx context.Context, req enrichment.Request) (string, any) {
	dir := req.Context.CWD
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "cwd_listing", nil
	}
	const limit = 25
	names := make([]string, 0, min(len(entries), limit))
	for i, e := range entries {
		if i >= limit {
			break
		}
		names = append(names, e.Name())
	}
	return "cwd_listing", names
}

// activeConnectionCountGatherer reports how many named connections are
// registered against this process (spec.md §4.7: "active-connection
// count").
func activeConnectionCountGatherer(sys *System) enrichment.Gatherer {
	return func(ctx context.Context, req enrichment.Request) (string, any) {
		return "active_connection_count", len(sys.Connections.Names())
	}
}

// matchingTableCandidatesGatherer embeds the user's input and searches the
// Vector Store for catalog objects it resembles, giving the panel a short
// list of likely table/column targets while the user is still typing.
func matchingTableCandidatesGatherer(sys *System) enrichment.Gatherer {
	return func(ctx context.Context, req enrichment.Request) (string, any) {
		if strings.TrimSpace(req.UserInput) == "" || sys.VectorStore.Len() == 0 {
			return "table_candidates", nil
		}
		embedding, err := sys.LLM.Embed(ctx, req.UserInput)
		if err != nil {
			return "table_candidates", nil
		}
		matches, err := sys.VectorStore.Search(embedding, 5)
		if err != nil {
			return "table_candidates", nil
		}
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Object.Name)
		}
		return "table_candidates", names
	}
}

// recentHistoryGatherer surfaces the last n QueryRecords for quick recall
// of what ran recently against the current connection.
func recentHistoryGatherer(sys *System, n int) enrichment.Gatherer {
	return func(ctx context.Context, req enrichment.Request) (string, any) {
		recs := sys.History.Recent(n)
		lines := make([]string, 0, len(recs))
		for _, r := range recs {
			lines = append(lines, fmt.Sprintf("%s: %s", r.Connection, r.RiskLevel))
		}
		return "recent_history", lines
	}
}

// matchingCredentialNamesGatherer returns credential names matching the
// user's input, never values (spec.md §4.7: "vault_access → matching
// credential names (never values)").
func matchingCredentialNamesGatherer(sys *System) enrichment.Gatherer {
	return func(ctx context.Context, req enrichment.Request) (string, any) {
		needle := strings.ToLower(strings.TrimSpace(req.UserInput))
		all := sys.Vault.Names()
		if needle == "" {
			return "vault_names", all
		}
		var matches []string
		for _, name := range all {
			if strings.Contains(strings.ToLower(name), needle) {
				matches = append(matches, name)
			}
		}
		return "vault_names", matches
	}
}

// systemSnapshotGatherer is the small generic snapshot used for the
// navigation/other intents: current module and open connections, nothing
// that requires a network round-trip.
func systemSnapshotGatherer(sys *System) enrichment.Gatherer {
	return func(ctx context.Context, req enrichment.Request) (string, any) {
		return "system_snapshot", map[string]any{
			"current_module":   req.Context.CurrentModule,
			"open_connections": sys.Connections.Names(),
		}
	}
}

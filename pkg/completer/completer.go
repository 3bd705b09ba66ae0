// Package completer implements the Intelligent Completer (spec.md §4.9):
// merging and ranking completions from the Vault, Vector Store, and
// command-pattern sources within a soft deadline.
package completer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wisbric/ai-shell/pkg/llm"
	"github.com/wisbric/ai-shell/pkg/vectorstore"
)

// sourcePriority orders completion sources: vault > SQL schema > commands
// (spec.md §4.9 Ranking).
type sourcePriority int

const (
	priorityVault sourcePriority = iota
	prioritySQLSchema
	priorityCommand
)

// Candidate is one completion suggestion.
type Candidate struct {
	Text       string
	Source     string
	Similarity float64
	priority   sourcePriority
}

// VaultNames supplies the Vault's credential name set (never values), for
// the "$vault." prefix source.
type VaultNames interface {
	Names() []string
}

// Completer merges the three completion sources.
type Completer struct {
	vault   VaultNames
	store   *vectorstore.Store
	manager *llm.Manager
	deadline time.Duration
}

func New(vault VaultNames, store *vectorstore.Store, manager *llm.Manager, deadline time.Duration) *Completer {
	if deadline <= 0 {
		deadline = 50 * time.Millisecond
	}
	return &Completer{vault: vault, store: store, manager: manager, deadline: deadline}
}

// Complete returns ranked completions for buffer at cursor, within the
// soft deadline; sources that do not respond in time are omitted silently.
func (c *Completer) Complete(ctx context.Context, buffer string, cursor int) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	if prefix, ok := vaultPrefix(buffer); ok {
		return c.vaultCandidates(prefix)
	}

	token := tokenAtCursor(buffer, cursor)

	type sourceResult struct {
		candidates []Candidate
	}
	results := make(chan sourceResult, 1)

	go func() {
		var cands []Candidate
		if looksLikeSQL(buffer) {
			cands = c.sqlSchemaCandidates(ctx, token)
		} else {
			cands = c.commandCandidates(ctx, token)
		}
		results <- sourceResult{candidates: cands}
	}()

	select {
	case r := <-results:
		return rank(r.candidates)
	case <-ctx.Done():
		return nil
	}
}

func vaultPrefix(buffer string) (string, bool) {
	idx := strings.LastIndex(buffer, "$vault.")
	if idx == -1 {
		return "", false
	}
	return buffer[idx+len("$vault."):], true
}

func (c *Completer) vaultCandidates(prefix string) []Candidate {
	if c.vault == nil {
		return nil
	}
	var out []Candidate
	for _, name := range c.vault.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, Candidate{Text: "$vault." + name, Source: "vault", Similarity: 1, priority: priorityVault})
		}
	}
	return rank(out)
}

// looksLikeSQL is the heuristic of spec.md §4.9: the buffer starts with a
// SQL verb or contains an unclosed statement.
func looksLikeSQL(buffer string) bool {
	trimmed := strings.TrimSpace(strings.ToUpper(buffer))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "EXPLAIN", "SHOW"} {
		if strings.HasPrefix(trimmed, verb) {
			return true
		}
	}
	return strings.Count(buffer, "(") != strings.Count(buffer, ")")
}

func (c *Completer) sqlSchemaCandidates(ctx context.Context, token string) []Candidate {
	if c.store == nil || c.manager == nil || token == "" {
		return nil
	}
	embedding, err := c.manager.Embed(ctx, token)
	if err != nil {
		return nil
	}
	matches, err := c.store.Search(embedding, 10)
	if err != nil {
		return nil
	}
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{Text: m.Object.Name, Source: "sql_schema", Similarity: m.Similarity, priority: prioritySQLSchema})
	}
	return out
}

func (c *Completer) commandCandidates(ctx context.Context, token string) []Candidate {
	if c.store == nil || c.manager == nil || token == "" {
		return nil
	}
	embedding, err := c.manager.Embed(ctx, token)
	if err != nil {
		return nil
	}
	matches, err := c.store.Search(embedding, 10)
	if err != nil {
		return nil
	}
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		if m.Object.Kind != "command" {
			continue
		}
		out = append(out, Candidate{Text: m.Object.Name, Source: "command", Similarity: m.Similarity, priority: priorityCommand})
	}
	return out
}

// tokenAtCursor returns the run of non-whitespace characters touching
// cursor in buffer.
func tokenAtCursor(buffer string, cursor int) string {
	if cursor < 0 || cursor > len(buffer) {
		cursor = len(buffer)
	}
	start := cursor
	for start > 0 && !isSpace(buffer[start-1]) {
		start--
	}
	end := cursor
	for end < len(buffer) && !isSpace(buffer[end]) {
		end++
	}
	return buffer[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }

// rank sorts by source priority first, similarity second, both descending
// in importance (lower sourcePriority value = more important).
func rank(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].priority != cands[j].priority {
			return cands[i].priority < cands[j].priority
		}
		return cands[i].Similarity > cands[j].Similarity
	})
	return cands
}

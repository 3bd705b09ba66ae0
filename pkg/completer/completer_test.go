package completer

import (
	"context"
	"testing"
)

type fakeVault struct{ names []string }

func (f fakeVault) Names() []string { return f.names }

func TestComplete_VaultPrefixFiltersByName(t *testing.T) {
	c := New(fakeVault{names: []string{"prod-db", "prod-cache", "staging-db"}}, nil, nil, 0)
	got := c.Complete(context.Background(), "connect to $vault.prod", 0)

	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	for _, cand := range got {
		if cand.Source != "vault" {
			t.Errorf("Source = %q, want %q", cand.Source, "vault")
		}
	}
}

func TestLooksLikeSQL(t *testing.T) {
	cases := []struct {
		buf  string
		want bool
	}{
		{"SELECT * FROM users", true},
		{"  select id from t", true},
		{"ls -la", false},
		{"UPDATE t SET (a", true}, // unclosed paren
	}
	for _, tc := range cases {
		if got := looksLikeSQL(tc.buf); got != tc.want {
			t.Errorf("looksLikeSQL(%q) = %v, want %v", tc.buf, got, tc.want)
		}
	}
}

func TestTokenAtCursor(t *testing.T) {
	buf := "SELECT * FROM use"
	got := tokenAtCursor(buf, len(buf))
	if got != "use" {
		t.Errorf("tokenAtCursor() = %q, want %q", got, "use")
	}
}

func TestRank_VaultBeatsSQLSchemaBeatsCommand(t *testing.T) {
	cands := []Candidate{
		{Text: "b", Source: "command", Similarity: 0.99, priority: priorityCommand},
		{Text: "a", Source: "vault", Similarity: 0.1, priority: priorityVault},
		{Text: "c", Source: "sql_schema", Similarity: 0.5, priority: prioritySQLSchema},
	}
	ranked := rank(cands)
	if ranked[0].Source != "vault" || ranked[1].Source != "sql_schema" || ranked[2].Source != "command" {
		t.Errorf("rank order = %v, want vault, sql_schema, command", ranked)
	}
}

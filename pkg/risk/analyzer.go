package risk

import "strings"

// irreversibleDDL are the DROP/TRUNCATE targets that rule 1 treats as
// permanent data loss.
var dropTargets = map[string]bool{"TABLE": true, "DATABASE": true, "SCHEMA": true}

// Analyzer classifies SQL statements. It holds no state and never executes
// a query; AffectedRowsEstimate is supplied by the caller when the client
// can cheaply produce one (e.g. an EXPLAIN-derived row estimate).
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Classify applies the exhaustive, first-match-wins rules of spec.md §4.2.
// affectedRows, if non-nil, is attached to the result unchanged; it plays
// no role in the level decision.
func (a *Analyzer) Classify(sql string, affectedRows *int64) Assessment {
	tokens := tokenize(sql)
	ops := topLevelOperations(tokens)

	result := Assessment{
		Operations:           ops,
		AffectedRowsEstimate: affectedRows,
	}

	if len(tokens) == 0 {
		result.Level = LevelLow
		return result
	}

	switch {
	case isDropOrTruncate(tokens):
		result.Level = LevelCritical
		result.Warnings = append(result.Warnings, "permanent data loss")

	case isDeleteOrUpdate(tokens) && !hasTopLevelWhere(tokens):
		result.Level = LevelHigh
		result.Warnings = append(result.Warnings, "no WHERE clause")

	case isDeleteOrUpdate(tokens) || isOneOf(tokens[0], "INSERT", "CREATE", "ALTER"):
		result.Level = LevelMedium

	case isOneOf(tokens[0], "SELECT", "EXPLAIN", "SHOW", "WITH"):
		result.Level = LevelLow

	default:
		// Unrecognised statement shape: treat conservatively as MEDIUM
		// rather than silently waving it through as LOW.
		result.Level = LevelMedium
	}

	return result
}

func isDropOrTruncate(tokens []string) bool {
	if tokens[0] == "TRUNCATE" {
		return true
	}
	if tokens[0] == "DROP" && len(tokens) > 1 {
		return dropTargets[tokens[1]]
	}
	return false
}

func isDeleteOrUpdate(tokens []string) bool {
	return isOneOf(tokens[0], "DELETE", "UPDATE")
}

func isOneOf(tok string, candidates ...string) bool {
	for _, c := range candidates {
		if tok == c {
			return true
		}
	}
	return false
}

// hasTopLevelWhere reports whether WHERE appears outside of any nested
// parentheses (a WHERE inside a subquery of, say, an UPDATE ... SET x =
// (SELECT ... WHERE ...) does not count as the statement's own clause).
func hasTopLevelWhere(tokens []string) bool {
	depth := 0
	for _, t := range tokens {
		switch t {
		case "(":
			depth++
		case ")":
			depth--
		case "WHERE":
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// topLevelOperations returns the distinct top-level SQL verbs present in
// the statement, in first-seen order. Multi-statement input (semicolon
// separated) contributes each statement's leading verb.
func topLevelOperations(tokens []string) []string {
	var ops []string
	seen := make(map[string]bool)
	atStatementStart := true
	for _, t := range tokens {
		if t == ";" {
			atStatementStart = true
			continue
		}
		if atStatementStart && isSQLVerb(t) {
			if !seen[t] {
				seen[t] = true
				ops = append(ops, t)
			}
			atStatementStart = false
		} else if atStatementStart {
			atStatementStart = false
		}
	}
	return ops
}

var sqlVerbs = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"CREATE": true, "ALTER": true, "DROP": true, "TRUNCATE": true,
	"EXPLAIN": true, "SHOW": true, "WITH": true, "GRANT": true, "REVOKE": true,
}

func isSQLVerb(t string) bool {
	return sqlVerbs[t]
}

// normalizeWhitespace is a small helper used by callers that want a
// canonical single-line form for logging warnings alongside the SQL text.
func normalizeWhitespace(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

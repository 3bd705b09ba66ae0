package llm

import "strings"

// RuleBasedIntent is the degraded-mode fallback for intent analysis
// (spec.md §4.5): a keyword heuristic used when no provider is configured
// or every provider call has exhausted its retry ceiling.
func RuleBasedIntent(text string) IntentResult {
	if strings.TrimSpace(text) == "" {
		return IntentResult{PrimaryIntent: IntentOther, Confidence: 0}
	}

	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "ls ", "cd ", "mkdir", "rm ", "cat ", "file", "directory"):
		return IntentResult{PrimaryIntent: IntentFileOperation, Confidence: 0.4}
	case containsAny(lower, "select", "insert", "update", "delete", "query", "table"):
		return IntentResult{PrimaryIntent: IntentDatabaseQuery, Confidence: 0.4}
	case containsAny(lower, "$vault.", "credential", "password", "secret"):
		return IntentResult{PrimaryIntent: IntentVaultAccess, Confidence: 0.4}
	case containsAny(lower, "connect", "use ", "switch to"):
		return IntentResult{PrimaryIntent: IntentNavigation, Confidence: 0.4}
	default:
		return IntentResult{PrimaryIntent: IntentOther, Confidence: 0.2}
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

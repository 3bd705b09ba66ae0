package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ipv4Pattern   = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
	bearerPattern = regexp.MustCompile(`\b[A-Za-z0-9_\-]{20,}\b`)
)

// VaultNameResolver reports credential names known to the Vault, so
// anonymise can also pseudonymise plaintexts the vault would redact.
type VaultNameResolver interface {
	Names() []string
}

// Anonymise scans text for sensitive patterns (email, IPv4, bearer-token
// shaped strings) and replaces each occurrence with a unique opaque token
// of the form <KIND_i>. The returned map reverses each token back to its
// original substring; deanonymise undoes the substitution exactly.
func Anonymise(text string) (string, map[string]string) {
	reverse := make(map[string]string)
	counters := map[string]int{"EMAIL": 0, "IPV4": 0, "TOKEN": 0}

	replace := func(kind string, s string, matched string) string {
		counters[kind]++
		token := fmt.Sprintf("<%s_%d>", kind, counters[kind])
		reverse[token] = matched
		return strings.ReplaceAll(s, matched, token)
	}

	out := text
	for _, m := range uniqueMatches(emailPattern, out) {
		out = replace("EMAIL", out, m)
	}
	for _, m := range uniqueMatches(ipv4Pattern, out) {
		out = replace("IPV4", out, m)
	}
	for _, m := range uniqueMatches(bearerPattern, out) {
		// Skip tokens we've already anonymised in an earlier pass.
		if strings.HasPrefix(m, "<") {
			continue
		}
		out = replace("TOKEN", out, m)
	}

	return out, reverse
}

// Deanonymise reverses Anonymise's substitution exactly, given the map it
// returned. For all x: Deanonymise(Anonymise(x)) == x.
func Deanonymise(text string, tokenMap map[string]string) string {
	out := text
	for token, original := range tokenMap {
		out = strings.ReplaceAll(out, token, original)
	}
	return out
}

// uniqueMatches returns each distinct match of pattern in s, in order of
// first appearance, so repeated occurrences of the same value get a single
// shared token rather than one each.
func uniqueMatches(pattern *regexp.Regexp, s string) []string {
	all := pattern.FindAllString(s, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range all {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

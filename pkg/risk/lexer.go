package risk

import "strings"

// tokenize splits a SQL statement into uppercase keyword/identifier tokens,
// discarding string literals, quoted identifiers, and comments so that
// classification never matches text sitting inside a string (e.g. a
// literal containing the word "drop").
func tokenize(sql string) []string {
	var tokens []string
	var buf strings.Builder
	runes := []rune(sql)
	n := len(runes)

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, strings.ToUpper(buf.String()))
			buf.Reset()
		}
	}

	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case r == '\'' || r == '"' || r == '`':
			flush()
			quote := r
			i++
			for i < n {
				if runes[i] == quote {
					if i+1 < n && runes[i+1] == quote {
						i += 2
						continue
					}
					break
				}
				i++
			}
		case r == '-' && i+1 < n && runes[i+1] == '-':
			flush()
			for i < n && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < n && runes[i+1] == '*':
			flush()
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
		case isWordRune(r):
			buf.WriteRune(r)
		case r == '(' || r == ')' || r == ';':
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

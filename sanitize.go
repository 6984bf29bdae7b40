package sqlload

import (
	"strings"
	"unicode"
)

// QuoteIdentifier wraps a column or table identifier in the dialect's quote
// character. Destination column names come from trusted mapping configuration,
// not from user input, so no allow-list filtering is applied; embedded quote
// characters are doubled and an already-quoted name is not wrapped again.
func QuoteIdentifier(dialect Dialect, name string) string {
	q := string(dialect.quoteRune())
	if len(name) >= 2 && strings.HasPrefix(name, q) && strings.HasSuffix(name, q) {
		return name
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// SafeParameterName turns an arbitrary property name into a valid placeholder
// identifier: illegal characters and whitespace become underscores, runs of
// underscores collapse, leading/trailing underscores are trimmed, and a name
// starting with a digit is prefixed with "p". The function is deterministic
// and total: every input maps to exactly one valid identifier.
func SafeParameterName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		ok := r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "p"
	}
	if first := rune(out[0]); first >= '0' && first <= '9' {
		out = "p" + out
	}
	return out
}

// unsafeTableSubstrings are rejected case-insensitively in operator-supplied
// table names. Defense in depth for names that bypass parameterization, such
// as TRUNCATE targets.
var unsafeTableSubstrings = []string{"select", "insert", "update", "delete"}

// IsSafeTableName reports whether a table name is acceptable for direct
// interpolation into a statement. It rejects whitespace, separators, quoting
// characters and embedded SQL keywords.
func IsSafeTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return false
		}
		switch r {
		case '.', '-', ';', ',', '\'', '"', '`', '(', ')':
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, kw := range unsafeTableSubstrings {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

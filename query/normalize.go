// Package query normalizes and re-binds CQL statement text for the debug
// TUI and diagnostics hook. It never touches the wire path: frame.QueryBody
// already carries bound values as opaque [][]byte.
package query

import "strings"

// Normalize replaces literal values in a CQL statement with placeholders,
// so that structurally identical statements can be grouped together.
//
// String literals ('...') are replaced with '?', standalone numeric
// literals are replaced with ?. Consecutive whitespace is collapsed to a
// single space. CQL has no positional $N placeholder syntax; only the
// driver's own ? markers survive unchanged.
func Normalize(cql string) string {
	if cql == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(cql))

	i := 0
	prevSpace := false
	for i < len(cql) {
		ch := cql[i]

		if ch == '\'' {
			i = normalizeString(&b, cql, i)
			prevSpace = false
			continue
		}

		if isDigit(ch) && (i == 0 || isNumBoundary(cql[i-1])) {
			if next, ok := normalizeNumber(&b, cql, i); ok {
				i = next
				prevSpace = false
				continue
			}
		}

		if isSpace(ch) {
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
			i++
			continue
		}

		b.WriteByte(ch)
		i++
		prevSpace = false
	}

	return strings.TrimRight(b.String(), " ")
}

// normalizeString replaces a string literal starting at pos with '?'.
func normalizeString(b *strings.Builder, cql string, pos int) int {
	j := pos + 1
	for j < len(cql) {
		if cql[j] == '\'' && j+1 < len(cql) && cql[j+1] == '\'' {
			j += 2
			continue
		}
		if cql[j] == '\'' {
			j++
			break
		}
		j++
	}
	b.WriteString("'?'")
	return j
}

// normalizeNumber replaces a numeric literal at pos with '?'.
// Returns (newPos, true) if replaced, or (0, false) if not a standalone number.
func normalizeNumber(b *strings.Builder, cql string, pos int) (int, bool) {
	j := pos + 1
	for j < len(cql) && (isDigit(cql[j]) || cql[j] == '.') {
		j++
	}
	if j >= len(cql) || isNumBoundary(cql[j]) {
		b.WriteByte('?')
		return j, true
	}
	return 0, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNumBoundary(c byte) bool {
	return isSpace(c) ||
		c == ',' || c == '(' || c == ')' || c == '=' ||
		c == '<' || c == '>' || c == '+' || c == '-' ||
		c == '*' || c == '/' || c == ';'
}

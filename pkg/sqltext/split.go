// Package sqltext splits multi-statement SQL scripts into executable units.
//
// The splitter is a heuristic, not a parser: it only understands statement
// separators and quoted string spans. Comments and dialect-specific quoting
// (dollar quotes, bracketed identifiers) are not recognised.
package sqltext

import "strings"

// Separator ends a statement when it occurs outside a quoted span.
const Separator = ';'

// Unit is one statement of a script with its 1-based position.
type Unit struct {
	Index int
	Text  string
}

// Split divides script into trimmed, non-empty statements.
// A ';' inside a '...' or "..." span never splits. Inside a span a backslash
// escapes the following character. An unterminated quote extends to the end
// of the script.
func Split(script string) []string {
	var stmts []string
	start := 0
	var quote byte

	for i := 0; i < len(script); i++ {
		ch := script[i]

		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
		case Separator:
			if stmt := strings.TrimSpace(script[start:i]); stmt != "" {
				stmts = append(stmts, stmt)
			}
			start = i + 1
		}
	}

	if start < len(script) {
		if tail := strings.TrimSpace(script[start:]); tail != "" {
			stmts = append(stmts, tail)
		}
	}
	return stmts
}

// Units is Split with positions attached.
func Units(script string) []Unit {
	stmts := Split(script)
	units := make([]Unit, len(stmts))
	for i, s := range stmts {
		units[i] = Unit{Index: i + 1, Text: s}
	}
	return units
}

// Join rebuilds a script from statements using the separator.
func Join(stmts []string) string {
	return strings.Join(stmts, string(Separator)+"\n")
}

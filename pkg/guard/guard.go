// Package guard decides whether a statement may be sent to the backend.
//
// The restrict-update flag carries two meanings. With the flag set, UPDATE and
// DELETE statements need a WHERE clause and everything else runs. With the flag
// cleared, no statement runs at all. The second half looks like an inverted
// condition but is kept as the observable contract; see DESIGN.md.
package guard

import (
	"strings"
	"unicode"
)

// Kind classifies a statement by its first keyword.
type Kind int

const (
	KindOther Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
)

// String returns the keyword for k.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "OTHER"
	}
}

// Destructive reports whether k needs a WHERE clause under the policy.
func (k Kind) Destructive() bool {
	return k == KindUpdate || k == KindDelete
}

// Rejection messages.
const (
	MissingWhereMessage = "Updates Or Deletes not allowed without where clause"
	DisabledMessage     = "Statements not allowed while restrictUpdate is disabled"
)

// RejectedError is returned by Check for statements the policy denies.
type RejectedError struct {
	Kind   Kind
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// FirstKeyword returns the upper-cased first word of stmt. Leading
// whitespace and leading "--" or "/* */" comments are skipped.
func FirstKeyword(stmt string) string {
	s := skipLeadingComments(stmt)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

func skipLeadingComments(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		default:
			return s
		}
	}
}

// Classify returns the Kind of stmt.
func Classify(stmt string) Kind {
	switch FirstKeyword(stmt) {
	case "SELECT", "WITH":
		return KindSelect
	case "INSERT":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	default:
		return KindOther
	}
}

// HasWhere reports whether stmt contains WHERE anywhere, case-insensitively.
// This is a substring test: a WHERE inside a literal or subquery counts.
func HasWhere(stmt string) bool {
	return strings.Contains(strings.ToUpper(stmt), "WHERE")
}

// IsPermitted reports whether stmt may run.
func IsPermitted(stmt string, restrictUpdate bool) bool {
	return Check(stmt, restrictUpdate) == nil
}

// Check returns nil when stmt may run, or a *RejectedError explaining why not.
func Check(stmt string, restrictUpdate bool) error {
	kind := Classify(stmt)
	if kind.Destructive() && !HasWhere(stmt) {
		return &RejectedError{Kind: kind, Reason: MissingWhereMessage}
	}
	if !restrictUpdate {
		return &RejectedError{Kind: kind, Reason: DisabledMessage}
	}
	return nil
}

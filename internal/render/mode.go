// Package render writes result envelopes and history entries for terminals,
// pipes and files.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode selects an output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
	ModeYAML     Mode = "yaml"
)

// Modes lists the accepted mode names.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeTable, ModeJSON, ModeCSV, ModeMarkdown, ModeYAML}
}

// ParseMode validates a mode name. "" means auto and "md" means markdown.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case "md":
		return ModeMarkdown, nil
	case ModeAuto, ModeTable, ModeJSON, ModeCSV, ModeMarkdown, ModeYAML:
		return m, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of %v)", s, Modes())
	}
}

// Resolve turns ModeAuto into a concrete mode: a table for terminals and
// markdown otherwise.
func Resolve(m Mode, isTTY bool) Mode {
	if m != ModeAuto && m != "" {
		return m
	}
	if isTTY {
		return ModeTable
	}
	return ModeMarkdown
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

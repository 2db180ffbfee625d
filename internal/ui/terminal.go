package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ShouldUseColor reports whether ANSI colors should be used on stdout.
// NO_COLOR (https://no-color.org) wins over everything, CLICOLOR_FORCE=1
// forces color without a TTY, and CLICOLOR=0 turns it off.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if envIs("CLICOLOR_FORCE", "1") {
		return true
	}
	if envIs("CLICOLOR", "0") {
		return false
	}
	return IsTerminal(os.Stdout)
}

func envIs(key, want string) bool {
	return strings.TrimSpace(os.Getenv(key)) == want
}

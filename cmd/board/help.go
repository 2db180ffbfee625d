package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/ui"
)

// helpRule colors one submatch of pattern in cobra's help text.
type helpRule struct {
	pattern *regexp.Regexp
	group   int
	render  func(string) string
}

var helpRules = []helpRule{
	// Section headers such as "Views:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`), 1, ui.RenderAccent},
	// Command names in the command listing.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.RenderCommand},
	// Flag value types.
	{regexp.MustCompile(`--?\S+\s+(string|int|duration|stringSlice)`), 1, ui.RenderMuted},
	{regexp.MustCompile(`(\(default "[^"]*"\))`), 1, ui.RenderMuted},
}

// colorizedHelpFunc returns a help function that colors cobra's usage text
// when the terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if !ui.ColorEnabled() {
			_ = cmd.Usage()
			return
		}
		orig := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)
		fmt.Fprint(orig, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		s = colorSubmatch(s, r)
	}
	return s
}

func colorSubmatch(s string, r helpRule) string {
	var out []byte
	last := 0
	for _, m := range r.pattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[2*r.group], m[2*r.group+1]
		if start < 0 {
			continue
		}
		out = append(out, s[last:start]...)
		out = append(out, r.render(s[start:end])...)
		last = end
	}
	return string(append(out, s[last:]...))
}

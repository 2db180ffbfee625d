package model

import (
	"strings"
	"unicode/utf8"
)

// Initials returns the first letter of each space-separated word in name,
// concatenated: "Ann Lee" -> "AL". Repeated spaces are skipped.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return b.String()
}

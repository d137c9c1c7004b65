// Package termtext measures and shortens strings that carry SGR escape
// sequences without breaking their styling.
//
// Visible width counts one column per rune outside an escape sequence. Wide
// characters are not special-cased.
package termtext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reset clears every active SGR attribute.
const Reset = "\x1b[0m"

// escapePattern matches a CSI sequence terminated by 'm'. It is deliberately
// loose: anything between "ESC [" and the next 'm' is treated as one escape.
var escapePattern = regexp.MustCompile("\x1b\\[[^m]*m")

// Strip removes every escape sequence from s.
func Strip(s string) string {
	return escapePattern.ReplaceAllString(s, "")
}

// VisibleWidth returns the number of columns s occupies once printed.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(Strip(s))
}

// Truncate shortens s to at most width visible columns.
func Truncate(s string, width int) string {
	return TruncateWith(s, width, "", 0)
}

// TruncateWith shortens s to at most width visible columns. When visible
// content is dropped, suffix (suffixWidth columns wide) is appended in place
// of the last kept columns.
//
// Escape sequences that start before the width is reached are copied
// verbatim. Each copied escape flips an "open style" flag, resets included;
// if the flag is set after the cut a Reset is appended before the suffix.
// This parity rule does not understand nested or grouped attributes.
//
// If suffixWidth exceeds width the suffix is dropped and s is hard-cut, so
// the result never exceeds width columns.
func TruncateWith(s string, width int, suffix string, suffixWidth int) string {
	if width < 0 {
		width = 0
	}
	if VisibleWidth(s) <= width {
		return s
	}

	keep := width - suffixWidth
	if suffixWidth < 0 || keep < 0 {
		keep = width
		suffix = ""
	}

	var b strings.Builder
	b.Grow(len(s) + len(Reset) + len(suffix))

	seen := 0
	open := false
	last := 0
	reached := false
	for _, m := range escapePattern.FindAllStringIndex(s, -1) {
		seen = takeVisible(&b, s[last:m[0]], seen, keep)
		if seen >= width {
			reached = true
			break
		}
		b.WriteString(s[m[0]:m[1]])
		open = !open
		last = m[1]
	}
	if !reached {
		takeVisible(&b, s[last:], seen, keep)
	}

	if open {
		b.WriteString(Reset)
	}
	b.WriteString(suffix)
	return b.String()
}

// takeVisible writes the runes of seg whose running column index is below
// keep and returns the running index after seg.
func takeVisible(b *strings.Builder, seg string, seen, keep int) int {
	cut := len(seg)
	for i := range seg {
		if seen >= keep && cut == len(seg) {
			cut = i
		}
		seen++
	}
	b.WriteString(seg[:cut])
	return seen
}

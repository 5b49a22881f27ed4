// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"regexp"
	"strings"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\x{00A0}]+`)
	lineEdgeSpaceRe   = regexp.MustCompile(` ?\n ?`)
	blankLinesRe      = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes extracted text before it is classified or returned.
// Control characters and U+FFFD are dropped, anything outside printable
// ASCII and the Latin-1 supplement becomes a space, whitespace runs are
// collapsed and three or more line breaks become a single blank line.
// Clean is idempotent.
func Clean(text string) string {
	text = strings.Map(cleanRune, text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = lineEdgeSpaceRe.ReplaceAllString(text, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// cleanRune maps a single rune for Clean. Returning -1 drops the rune.
func cleanRune(r rune) rune {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return r
	case isControl(r):
		return -1
	case r == '\uFFFD':
		return -1
	case r >= 0x20 && r <= 0x7E:
		return r
	case r >= 0xA0 && r <= 0xFF:
		return r
	default:
		return ' '
	}
}

// isControl reports whether r is a C0 or C1 control character (DEL included).
func isControl(r rune) bool {
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F)
}

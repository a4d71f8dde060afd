// Package normalize prepares harvested text for dictionary lookup: it
// pulls field values out of the category files and strips everything that
// is not candidate vocabulary.
package normalize

import (
	"strings"
	"unicode"
)

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// extra lists the CJK punctuation and symbols removed besides the classes
// handled in dropRune.
const extra = "【】，（）？+%./。！：↓①②③④👇👆🐭💡🐸⚠"

var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
}

func isASCIILetter(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }

func isASCIIPunct(r rune) bool { return r < 0x80 && strings.ContainsRune(asciiPunct, r) }

func dropRune(r rune) bool {
	switch {
	case isASCIILetter(r), isASCIIPunct(r):
		return true
	case unicode.IsNumber(r), unicode.Is(unicode.Sm, r):
		return true
	case strings.ContainsRune(extra, r):
		return true
	}
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// Clean replaces English letters, ASCII punctuation, numbers, math
// symbols, emoji and common CJK punctuation with spaces, then collapses
// runs of whitespace.
func Clean(s string) string {
	return collapse(strings.Map(func(r rune) rune {
		if dropRune(r) {
			return ' '
		}
		return r
	}, s))
}

// StripASCII replaces ASCII letters, digits and punctuation with spaces
// and collapses whitespace. Non-ASCII symbols are kept.
func StripASCII(s string) string {
	return collapse(strings.Map(func(r rune) rune {
		if isASCIILetter(r) || isASCIIPunct(r) || r >= '0' && r <= '9' {
			return ' '
		}
		return r
	}, s))
}

// Words splits s on whitespace.
func Words(s string) []string { return strings.Fields(s) }

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

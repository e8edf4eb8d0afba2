package export

import (
	"strings"
	"unicode"
)

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This makes most spreadsheet software treat it as text.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		// A plain negative number is data, not a formula.
		if trimmed[0] == '-' && looksNumeric(trimmed) {
			return s
		}
		return "'" + s
	}
	return s
}

// StripUnprintable removes non-printable characters, keeping tabs and line breaks.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

func looksNumeric(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '-' && i == 0, r == '.', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return digits > 0
}

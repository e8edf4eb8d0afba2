package ine

import (
	"fmt"
	"strings"
)

// Language selects the language of the labels returned by the service.
type Language string

const (
	Spanish Language = "ES"
	English Language = "EN"
)

// DefaultLanguage is the language a new Client starts with.
const DefaultLanguage = Spanish

// ParseLanguage accepts "ES" or "EN" in any case.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToUpper(strings.TrimSpace(s))) {
	case Spanish:
		return Spanish, nil
	case English:
		return English, nil
	default:
		return "", fmt.Errorf("%w: %q (want ES or EN)", ErrInvalidLanguage, s)
	}
}

func (l Language) valid() bool {
	return l == Spanish || l == English
}

func (l Language) String() string { return string(l) }

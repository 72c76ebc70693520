package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Language selects the forecast text language. Upstream endpoints key it
// either numerically (1/2) or by code (no/en).
type Language int

const (
	Norwegian Language = 1
	English   Language = 2
)

// ParseLanguage accepts both upstream conventions.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "no", "nb", "nob":
		return Norwegian, nil
	case "2", "en", "eng":
		return English, nil
	default:
		return 0, fmt.Errorf("unknown language %q", s)
	}
}

// Key is the numeric path segment.
func (l Language) Key() string {
	return strconv.Itoa(int(l))
}

// Code is the two-letter path segment.
func (l Language) Code() string {
	if l == English {
		return "en"
	}
	return "no"
}

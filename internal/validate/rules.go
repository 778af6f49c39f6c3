// Package validate holds the synchronous form rules shared by every view.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nameRe   = regexp.MustCompile(`^[A-Za-zÀ-ÿñÑ ]{2,60}$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// Length limits.
const (
	MinDocumentLen  = 6
	MaxDocumentLen  = 12
	PhoneLen        = 10
	MinPasswordLen  = 8
	MinResetCodeLen = 6
)

// NotBlank reports whether s has anything besides whitespace.
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Name accepts 2 to 60 letters (accented included) and spaces.
func Name(s string) bool {
	return nameRe.MatchString(s)
}

// Digits reports whether s is a non-empty run of ASCII digits.
func Digits(s string) bool {
	return digitsRe.MatchString(s)
}

// Document accepts 6 to 12 digits.
func Document(s string) bool {
	return Digits(s) && len(s) >= MinDocumentLen && len(s) <= MaxDocumentLen
}

// Phone accepts exactly 10 digits.
func Phone(s string) bool {
	return Digits(s) && len(s) == PhoneLen
}

// Email checks the local@domain.tld shape only.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// StrongPassword requires 8 characters with a lower-case letter, an upper-case
// letter, a digit and a symbol.
func StrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < MinPasswordLen {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

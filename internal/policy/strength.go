package policy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Strength int

const (
	Weak Strength = iota
	Medium
	Strong
)

func (s Strength) String() string {
	switch s {
	case Strong:
		return "Strong"
	case Medium:
		return "Medium"
	default:
		return "Weak"
	}
}

const (
	strongMinLen = 12
	mediumMinLen = 8

	// Symbols counted towards a Strong password.
	Symbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// commonFragments are matched against the lower-cased password; any hit is
// Weak regardless of length or character classes.
var commonFragments = []string{
	"123456",
	"password",
	"qwerty",
	"letmein",
	"111111",
	"abc123",
	"iloveyou",
	"welcome",
	"monkey",
	"dragon",
	"admin",
}

func ClassifyStrength(s string) Strength {
	lower := cases.Lower(language.Und).String(s)
	for _, f := range commonFragments {
		if strings.Contains(lower, f) {
			return Weak
		}
	}

	var upper, lowerCase, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lowerCase = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		}
	}

	n := utf8.RuneCountInString(s)
	switch {
	case n >= strongMinLen && upper && lowerCase && digit && symbol:
		return Strong
	case n >= mediumMinLen && (upper || lowerCase) && digit:
		return Medium
	default:
		return Weak
	}
}

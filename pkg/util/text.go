package util

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeText lowercases s and collapses punctuation to single spaces.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits s into normalized word tokens.
func Tokens(s string) []string {
	norm := NormalizeText(s)
	if norm == "" {
		return nil
	}
	return strings.Fields(norm)
}

// ContainsWord reports whether text contains token as a whole word.
// Short tokens match on word boundaries only; longer tokens match as substrings.
func ContainsWord(text, token string) bool {
	if token == "" {
		return false
	}
	if len(token) > 3 {
		return strings.Contains(text, token)
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// SingularVariant returns token without a trailing plural s, or "" if none.
func SingularVariant(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		return token[:len(token)-1]
	}
	return ""
}

// IsNumeric reports whether token consists only of digits.
func IsNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

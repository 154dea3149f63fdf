// Package phone normalizes Iranian mobile numbers.
package phone

import (
	"strings"
	"unicode"
)

const (
	countryCode   = "98"
	intlPrefix    = "+"
	exitPrefix    = "00"
	trunkPrefix   = "0"
	localLength   = 11
	intlCodeWidth = len(intlPrefix + countryCode)
)

// Normalize - converts a phone number to the +98XXXXXXXXXX form.
// Unrecognized input is returned as-is (whitespace stripped).
func Normalize(raw string) string {
	p := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	switch {
	case strings.HasPrefix(p, intlPrefix):
		return p
	case strings.HasPrefix(p, exitPrefix+countryCode):
		return intlPrefix + p[len(exitPrefix):]
	case strings.HasPrefix(p, countryCode):
		return intlPrefix + p
	case strings.HasPrefix(p, trunkPrefix) && len(p) == localLength:
		return intlPrefix + countryCode + p[len(trunkPrefix):]
	}
	return p
}

// LocalForm returns the legacy 0XXXXXXXXXX form of a normalized number,
// or "" when the number is not +98-prefixed.
func LocalForm(normalized string) string {
	if !strings.HasPrefix(normalized, intlPrefix+countryCode) {
		return ""
	}
	return trunkPrefix + normalized[intlCodeWidth:]
}

// Aliases returns every stored form a phone may have been written as.
// The normalized form is always first.
func Aliases(raw string) []string {
	normalized := Normalize(raw)
	out := []string{normalized}

	add := func(s string) {
		if s == "" {
			return
		}
		for _, existing := range out {
			if existing == s {
				return
			}
		}
		out = append(out, s)
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, trunkPrefix) && len(trimmed) == localLength {
		add(trimmed)
	}
	add(LocalForm(normalized))
	return out
}

// Mask hides the middle digits for logs: +98912***4567.
func Mask(p string) string {
	if len(p) < 8 {
		return "***"
	}
	return p[:len(p)-7] + "***" + p[len(p)-4:]
}

// Package arguments recognizes and converts the raw text tokens users type after
// a command key. Numeric recognizers are exact: they accept a literal only when
// it fits the declared width, so a later strconv call never overflows.
package arguments

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	maxInt32Digits = "2147483647"
	minInt32Digits = "2147483648"
	maxInt64Digits = "9223372036854775807"
	minInt64Digits = "9223372036854775808"
)

var (
	floatPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)
	boolPattern  = regexp.MustCompile(`(?i)^(?:(true|yes|on)|(false|no|off))$`)
)

// IsNumber reports whether s is an optional '-' followed by at least one decimal digit.
func IsNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// IsInteger reports whether s is a decimal literal representable as a signed 32-bit integer.
func IsInteger(s string) bool {
	return fitsBound(s, maxInt32Digits, minInt32Digits)
}

// IsLong reports whether s is a decimal literal representable as a signed 64-bit integer.
func IsLong(s string) bool {
	return fitsBound(s, maxInt64Digits, minInt64Digits)
}

// fitsBound compares s digit by digit against the positive and negative bounds.
// Literals shorter than the bound always fit; longer ones never do.
func fitsBound(s, upper, lower string) bool {
	if !IsNumber(s) {
		return false
	}
	bound := upper
	digits := s
	if s[0] == '-' {
		bound = lower
		digits = s[1:]
	}
	switch {
	case len(digits) < len(bound):
		return true
	case len(digits) > len(bound):
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < bound[i] {
			return true
		}
		if digits[i] > bound[i] {
			return false
		}
	}
	return true
}

// IsFloat reports whether s is a simple decimal with an optional exponent.
func IsFloat(s string) bool {
	return floatPattern.MatchString(s)
}

// IsDouble is IsFloat; both widths share one grammar.
func IsDouble(s string) bool {
	return IsFloat(s)
}

// IsHex reports whether s is a run of hex digits with an optional 0x, 0X or # prefix.
func IsHex(s string) bool {
	digits := StripHexPrefix(s)
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// StripHexPrefix removes a leading 0x, 0X or #.
func StripHexPrefix(s string) string {
	switch {
	case strings.HasPrefix(s, "#"):
		return s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return s[2:]
	}
	return s
}

// ParseHex parses a hex literal accepted by IsHex as a 64-bit value.
func ParseHex(s string) (int64, error) {
	return strconv.ParseInt(StripHexPrefix(s), 16, 64)
}

// IsMention reports whether s looks like a chat mention (<...>).
func IsMention(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

// IsBoolean reports whether s is one of true/yes/on/false/no/off, case-insensitively.
func IsBoolean(s string) bool {
	return boolPattern.MatchString(s)
}

// ParseBoolean returns the value of a boolean literal and whether s was one.
func ParseBoolean(s string) (value bool, ok bool) {
	m := boolPattern.FindStringSubmatch(s)
	if m == nil {
		return false, false
	}
	return m[1] != "", true
}

// IsName reports whether s is a valid chat-server name: letters, digits, '_' and '-',
// between 2 and 32 characters.
func IsName(s string) bool {
	n := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
		n++
	}
	return n >= 2 && n <= 32
}

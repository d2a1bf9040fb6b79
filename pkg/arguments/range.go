package arguments

import (
	"strconv"
	"strings"
)

// Range is a closed integer range walked from From to To; To may be below From.
type Range struct {
	From int
	To   int
}

// Len returns the number of integers in the range.
func (r Range) Len() int {
	if r.From <= r.To {
		return r.To - r.From + 1
	}
	return r.From - r.To + 1
}

// Values materializes the range in walking order.
func (r Range) Values() []int {
	out := make([]int, 0, r.Len())
	r.Each(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Each calls fn for every value in walking order until fn returns false.
func (r Range) Each(fn func(int) bool) {
	step := 1
	if r.From > r.To {
		step = -1
	}
	for v := r.From; ; v += step {
		if !fn(v) || v == r.To {
			return
		}
	}
}

func (r Range) String() string {
	return strconv.Itoa(r.From) + "-" + strconv.Itoa(r.To)
}

func splitRange(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	dash := strings.IndexByte(s[start:], '-')
	if dash < 0 {
		return "", "", false
	}
	dash += start
	if dash+1 == len(s) {
		return "", "", false
	}
	return s[:dash], s[dash+1:], true
}

// IsRange reports whether s has the form A-B with both ends 32-bit integers.
func IsRange(s string) bool {
	a, b, ok := splitRange(s)
	return ok && IsInteger(a) && IsInteger(b)
}

// ParseRange parses A-B into a Range. A bare integer yields a single-value range.
func ParseRange(s string) (Range, bool) {
	a, b, ok := splitRange(s)
	if !ok {
		if !IsInteger(s) {
			return Range{}, false
		}
		n, _ := strconv.Atoi(s)
		return Range{From: n, To: n}, true
	}
	if !IsInteger(a) || !IsInteger(b) {
		return Range{}, false
	}
	from, _ := strconv.Atoi(a)
	to, _ := strconv.Atoi(b)
	return Range{From: from, To: to}, true
}

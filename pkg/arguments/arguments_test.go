package arguments

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInteger(t *testing.T) {
	cases := map[string]bool{
		"0":            true,
		"-0":           true,
		"42":           true,
		"2147483647":   true,
		"2147483648":   false,
		"-2147483648":  true,
		"-2147483649":  false,
		"2099999999":   true,
		"9999999999":   false,
		"12345678901":  false,
		"":             false,
		"-":            false,
		"1a":           false,
		"+1":           false,
		"-21474836470": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsInteger(in), "IsInteger(%q)", in)
	}
}

func TestIsLong(t *testing.T) {
	cases := map[string]bool{
		"9223372036854775807":  true,
		"9223372036854775808":  false,
		"-9223372036854775808": true,
		"-9223372036854775809": false,
		"2147483648":           true,
		"9300000000000000000":  false,
		"8999999999999999999":  true,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsLong(in), "IsLong(%q)", in)
	}
}

func TestIsFloat(t *testing.T) {
	for _, s := range []string{"1", "1.", "1.5", ".5", "-2.25", "+3e10", "6.02E-23"} {
		assert.True(t, IsFloat(s), s)
	}
	for _, s := range []string{"", ".", "e5", "1.2.3", "abc", "1e"} {
		assert.False(t, IsFloat(s), s)
	}
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("ff00aa"))
	assert.True(t, IsHex("0xFF"))
	assert.True(t, IsHex("0X1f"))
	assert.True(t, IsHex("#abcdef"))
	assert.False(t, IsHex("#"))
	assert.False(t, IsHex("0x"))
	assert.False(t, IsHex("xyz"))

	v, err := ParseHex("#ff")
	require.NoError(t, err)
	assert.Equal(t, int64(255), v)
}

func TestBoolean(t *testing.T) {
	for _, s := range []string{"true", "YES", "On"} {
		v, ok := ParseBoolean(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "No", "OFF"} {
		v, ok := ParseBoolean(s)
		assert.True(t, ok, s)
		assert.False(t, v, s)
	}
	_, ok := ParseBoolean("yesno")
	assert.False(t, ok)
	assert.False(t, IsBoolean("maybe"))
}

func TestMentionAndName(t *testing.T) {
	assert.True(t, IsMention("<@42>"))
	assert.False(t, IsMention("<@42"))
	assert.False(t, IsMention(">"))

	assert.True(t, IsName("bread_bot-2"))
	assert.False(t, IsName("a"))
	assert.False(t, IsName("has space"))
	assert.False(t, IsName("abcdefghijabcdefghijabcdefghijabc"))
}

func TestRange(t *testing.T) {
	r, ok := ParseRange("1-4")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4}, r.Values())

	r, ok = ParseRange("4-1")
	require.True(t, ok)
	assert.Equal(t, []int{4, 3, 2, 1}, r.Values())

	r, ok = ParseRange("-2-1")
	require.True(t, ok)
	assert.Equal(t, []int{-2, -1, 0, 1}, r.Values())

	r, ok = ParseRange("7")
	require.True(t, ok)
	assert.Equal(t, []int{7}, r.Values())

	assert.True(t, IsRange("3--5"))
	assert.False(t, IsRange("3-"))
	assert.False(t, IsRange("a-b"))
	_, ok = ParseRange("1-x")
	assert.False(t, ok)
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  []string
	}{
		{"", 0, nil},
		{"   ", 0, nil},
		{"a b  c", 0, []string{"a", "b", "c"}},
		{`a "b c" d`, 0, []string{"a", "b c", "d"}},
		{`"" x`, 0, []string{"", "x"}},
		{`a "b c`, 0, []string{"a", "b c"}},
		{`a"b c"`, 0, []string{`a"b`, `c"`}},
		{"a b c d", 2, []string{"a", "b c d"}},
		{"  lead trail  ", 0, []string{"lead", "trail"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Tokenize(tc.in, nil, tc.limit), "Tokenize(%q, %d)", tc.in, tc.limit)
	}
}

func TestTokenizeCustomSplit(t *testing.T) {
	split := regexp.MustCompile(`\s*,\s*`)
	assert.Equal(t, []string{"a b", "c", "d"}, Tokenize("a b, c ,d", split, 0))
}

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"a b c",
		`one "two three" four`,
		`"" empty`,
		`  "  padded  "   x`,
		"tabs\tand\nnewlines",
	}
	for _, in := range inputs {
		tokens := Tokenize(in, nil, 0)
		assert.Equal(t, tokens, Tokenize(Join(tokens, nil), nil, 0), in)
	}

	plain := "x   y z"
	tokens := Tokenize(plain, nil, 0)
	assert.Equal(t, tokens, Tokenize("x y z", nil, 0))
}

func TestSkip(t *testing.T) {
	assert.Equal(t, "c d", Skip("a b c d", nil, 2))
	assert.Equal(t, `x "y z"`, Skip(`"a b" x "y z"`, nil, 1))
	assert.Equal(t, "", Skip("a", nil, 3))
	assert.Equal(t, "a  b", Skip("  a  b", nil, 0))
}

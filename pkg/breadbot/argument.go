package breadbot

import (
	"strconv"
	"strings"

	"github.com/keshon/breadbot/pkg/arguments"
)

type argCheck uint16

const (
	checkNumber argCheck = 1 << iota
	checkInteger
	checkLong
	checkFloat
	checkHex
	checkBoolean
	checkMention
	checkRange
	checkName
)

// Argument is one raw token. Type predicates are computed on first use.
type Argument struct {
	text    string
	event   *CommandEvent
	checked argCheck
	passed  argCheck
}

// NewArgument wraps text as an argument of ev, which may be nil.
func NewArgument(ev *CommandEvent, text string) *Argument {
	return &Argument{text: text, event: ev}
}

func (a *Argument) String() string { return a.text }

// Event returns the command event the token came from.
func (a *Argument) Event() *CommandEvent { return a.event }

func (a *Argument) check(c argCheck, fn func(string) bool) bool {
	if a.checked&c == 0 {
		a.checked |= c
		if fn(a.text) {
			a.passed |= c
		}
	}
	return a.passed&c != 0
}

func (a *Argument) IsNumber() bool  { return a.check(checkNumber, arguments.IsNumber) }
func (a *Argument) IsInteger() bool { return a.check(checkInteger, arguments.IsInteger) }
func (a *Argument) IsLong() bool    { return a.check(checkLong, arguments.IsLong) }
func (a *Argument) IsFloat() bool   { return a.check(checkFloat, arguments.IsFloat) }
func (a *Argument) IsHex() bool     { return a.check(checkHex, arguments.IsHex) }
func (a *Argument) IsBoolean() bool { return a.check(checkBoolean, arguments.IsBoolean) }
func (a *Argument) IsMention() bool { return a.check(checkMention, arguments.IsMention) }
func (a *Argument) IsRange() bool   { return a.check(checkRange, arguments.IsRange) }
func (a *Argument) IsName() bool    { return a.check(checkName, arguments.IsName) }

// Int parses the token as a 32-bit integer.
func (a *Argument) Int() (int32, bool) {
	if !a.IsInteger() {
		return 0, false
	}
	n, err := strconv.ParseInt(a.text, 10, 32)
	return int32(n), err == nil
}

// Long parses the token as a 64-bit integer.
func (a *Argument) Long() (int64, bool) {
	if !a.IsLong() {
		return 0, false
	}
	n, err := strconv.ParseInt(a.text, 10, 64)
	return n, err == nil
}

// Float parses the token as a float64.
func (a *Argument) Float() (float64, bool) {
	if !a.IsFloat() {
		return 0, false
	}
	f, err := strconv.ParseFloat(a.text, 64)
	return f, err == nil
}

// Bool parses the token as a boolean literal.
func (a *Argument) Bool() (bool, bool) {
	return arguments.ParseBoolean(a.text)
}

// Range parses the token as an integer range.
func (a *Argument) Range() (arguments.Range, bool) {
	return arguments.ParseRange(a.text)
}

// MentionID returns the snowflake inside a user, role or channel mention.
func (a *Argument) MentionID() (string, bool) {
	if !a.IsMention() {
		return "", false
	}
	id := strings.TrimLeft(a.text[1:len(a.text)-1], "@!&#")
	if !arguments.IsNumber(id) || strings.HasPrefix(id, "-") {
		return "", false
	}
	return id, true
}

// ArgumentList is the tokenized argument text of one dispatch.
type ArgumentList struct {
	event *CommandEvent
	args  []*Argument
}

func newArgumentList(ev *CommandEvent, tokens []string) *ArgumentList {
	l := &ArgumentList{event: ev, args: make([]*Argument, len(tokens))}
	for i, t := range tokens {
		l.args[i] = NewArgument(ev, t)
	}
	return l
}

// Len returns the number of tokens.
func (l *ArgumentList) Len() int { return len(l.args) }

// Get returns the token at i.
func (l *ArgumentList) Get(i int) *Argument { return l.args[i] }

// Event returns the owning event.
func (l *ArgumentList) Event() *CommandEvent { return l.event }

// Strings returns the raw tokens.
func (l *ArgumentList) Strings() []string {
	out := make([]string, len(l.args))
	for i, a := range l.args {
		out[i] = a.text
	}
	return out
}

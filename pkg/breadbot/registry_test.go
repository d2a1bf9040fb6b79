package breadbot

import (
	"context"
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/arguments"
)

func TestPropertyMapLayering(t *testing.T) {
	parent := NewPropertyMap(nil)
	parent.Put(Group("a"))
	parent.Put(Description("parent"))
	child := NewPropertyMap(parent)
	child.Put(Group("b"))

	g, ok := Property[Group](child)
	require.True(t, ok)
	assert.Equal(t, Group("b"), g)
	assert.True(t, HasProperty[Description](child))
	assert.False(t, HasProperty[Name](child))
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Group]()}, child.Own())
	assert.Equal(t, 2, child.Len())

	flat := child.Compact()
	assert.Len(t, flat.Own(), 2)
	d, _ := Property[Description](flat)
	assert.Equal(t, Description("parent"), d)
	g, _ = Property[Group](parent)
	assert.Equal(t, Group("a"), g)
}

func TestPreprocessorCompare(t *testing.T) {
	r := newPreprocessors()
	r.SetPriority("x", "y")
	noop := func(any, *Handler, *CommandEvent, *ProcessStack) {}
	list := []Preprocessor{
		NewPreprocessor("q", noop),
		NewPreprocessor("y", noop),
		NewPreprocessor("b", noop),
		NewPreprocessor("x", noop),
	}
	r.Sort(list)
	var ids []string
	for _, p := range list {
		ids = append(ids, p.Identifier())
	}
	assert.Equal(t, []string{"x", "y", "b", "q"}, ids)
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			assert.LessOrEqual(t, r.Compare(list[i], list[j]), 0)
		}
	}
}

func TestArgumentTypes(t *testing.T) {
	r := NewArgumentTypes()
	arg := func(s string) *Argument { return NewArgument(nil, s) }
	intType := reflect.TypeFor[int32]()

	v, ok := r.Map(intType, arg("2147483647"), 0)
	assert.True(t, ok)
	assert.Equal(t, int32(2147483647), v)
	_, ok = r.Map(intType, arg("2147483648"), 0)
	assert.False(t, ok)
	v, ok = r.Map(intType, arg("-2147483648"), 0)
	assert.True(t, ok)
	assert.Equal(t, int32(-2147483648), v)
	_, ok = r.Map(intType, arg("-2147483649"), 0)
	assert.False(t, ok)

	v, ok = r.Map(reflect.TypeFor[int64](), arg("0x7f"), FlagHex)
	assert.True(t, ok)
	assert.Equal(t, int64(127), v)
	_, ok = r.Map(reflect.TypeFor[int](), arg("-1"), FlagUnsigned)
	assert.False(t, ok)

	v, ok = r.Map(reflect.TypeFor[*bool](), arg("Yes"), 0)
	require.True(t, ok)
	assert.True(t, *(v.(*bool)))

	v, ok = r.Map(reflect.TypeFor[arguments.Range](), arg("5-2"), 0)
	require.True(t, ok)
	assert.Equal(t, []int{5, 4, 3, 2}, v.(arguments.Range).Values())

	raw := arg("<@1>")
	v, ok = r.Map(reflect.TypeFor[*Argument](), raw, 0)
	assert.True(t, ok)
	assert.Same(t, raw, v)

	assert.False(t, r.Has(reflect.TypeFor[chan int]()))
	assert.True(t, r.Has(reflect.TypeFor[*float64]()))
}

func TestResultHandlerLookup(t *testing.T) {
	r := NewResultHandlers()
	_, ok := r.Lookup(reflect.TypeFor[string]())
	assert.True(t, ok)
	_, ok = r.Lookup(nil)
	assert.True(t, ok)
	_, ok = r.Lookup(reflect.TypeFor[arguments.Range]())
	assert.True(t, ok, "Range implements fmt.Stringer")
	_, ok = r.Lookup(reflect.TypeFor[int]())
	assert.False(t, ok)
}

func TestDefaultEventFactory(t *testing.T) {
	f := DefaultEventFactory{}
	create := func(content string) *CommandEvent {
		return f.CreateEvent(context.Background(), nil, &discordgo.Message{Content: content}, "42", "!")
	}

	ev := create("<@42> help foo")
	require.NotNil(t, ev)
	assert.Equal(t, "foo", ev.Key())
	assert.Equal(t, " help", ev.Content())
	assert.True(t, ev.IsHelp())

	ev = create("!help")
	require.NotNil(t, ev)
	assert.Equal(t, "help", ev.Key())
	assert.Equal(t, "", ev.Content())
	assert.True(t, ev.IsHelp())

	ev = create("!HELP math add 1")
	require.NotNil(t, ev)
	assert.Equal(t, "math", ev.Key())
	assert.Equal(t, "add 1 help", ev.Content())

	ev = create("!  ping   a b")
	require.NotNil(t, ev)
	assert.Equal(t, "ping", ev.Key())
	assert.Equal(t, "a b", ev.Content())
	assert.False(t, ev.IsHelp())

	assert.Nil(t, create("ping"))
	assert.Nil(t, create("<@41> ping"))
	assert.Nil(t, create("<@42>"))
	assert.NotEmpty(t, create("<@42> ping").ID())
}

package breadbot

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// MissingArgumentHandler runs when a required parameter could not be bound.
type MissingArgumentHandler func(ev *CommandEvent, p *Parameter)

type paramKind int

const (
	paramToken paramKind = iota
	paramEvent
	paramContext
)

var (
	eventType   = reflect.TypeFor[*CommandEvent]()
	contextType = reflect.TypeFor[context.Context]()
)

// ParameterBuilder configures one handler parameter until Build.
type ParameterBuilder struct {
	client    *ClientBuilder
	position  int
	name      string
	typ       reflect.Type
	kind      paramKind
	index     int
	width     int
	flags     Flag
	required  bool
	onMissing MissingArgumentHandler
	mapper    ArgumentMapper
	props     *PropertyMap
}

func newParameterBuilder(client *ClientBuilder, position int, typ reflect.Type, parent *PropertyMap) *ParameterBuilder {
	p := &ParameterBuilder{
		client:   client,
		position: position,
		name:     fmt.Sprintf("arg%d", position),
		typ:      typ,
		index:    -1,
		width:    1,
		props:    NewPropertyMap(parent),
	}
	switch {
	case typ == eventType:
		p.kind = paramEvent
	case typ == contextType:
		p.kind = paramContext
	}
	return p
}

func (p *ParameterBuilder) Name() string       { return p.name }
func (p *ParameterBuilder) Type() reflect.Type { return p.typ }
func (p *ParameterBuilder) Index() int         { return p.index }
func (p *ParameterBuilder) Width() int         { return p.width }
func (p *ParameterBuilder) Flags() Flag        { return p.flags }
func (p *ParameterBuilder) IsRequired() bool   { return p.required }

// Properties returns the parameter's property map.
func (p *ParameterBuilder) Properties() *PropertyMap { return p.props }

func (p *ParameterBuilder) SetName(name string) *ParameterBuilder {
	p.name = name
	return p
}

// SetIndex pins the parameter to token position index; negative means the
// first unclaimed position.
func (p *ParameterBuilder) SetIndex(index int) *ParameterBuilder {
	p.index = index
	return p
}

// SetWidth sets how many tokens are joined: 1 for a single token, n > 1 for
// exactly n consecutive tokens, and 0 or less for every unclaimed token up to
// the next claimed one. The greedy run is mapped as a whole or not at all.
func (p *ParameterBuilder) SetWidth(width int) *ParameterBuilder {
	p.width = width
	return p
}

func (p *ParameterBuilder) SetFlags(flags Flag) *ParameterBuilder {
	p.flags = flags
	return p
}

func (p *ParameterBuilder) SetRequired(required bool) *ParameterBuilder {
	p.required = required
	return p
}

// SetMissingArgumentHandler sets the callback for an unbound required parameter.
func (p *ParameterBuilder) SetMissingArgumentHandler(fn MissingArgumentHandler) *ParameterBuilder {
	p.onMissing = fn
	return p
}

// SetMapper overrides the registry mapper for this parameter only.
func (p *ParameterBuilder) SetMapper(mapper ArgumentMapper) *ParameterBuilder {
	p.mapper = mapper
	return p
}

// PutProperty stores v and applies its modifiers.
func (p *ParameterBuilder) PutProperty(v any) *ParameterBuilder {
	p.props.Put(v)
	p.client.modifiers.ApplyParameter(p)
	return p
}

func (p *ParameterBuilder) build() (*Parameter, error) {
	p.client.modifiers.ApplyParameter(p)
	param := &Parameter{
		position:  p.position,
		name:      p.name,
		typ:       p.typ,
		kind:      p.kind,
		index:     p.index,
		width:     p.width,
		flags:     p.flags,
		required:  p.required,
		onMissing: p.onMissing,
	}
	if p.kind != paramToken {
		return param, nil
	}
	switch {
	case p.mapper != nil:
		mapper := p.mapper
		param.mapper = func(arg *Argument, flags Flag) (any, bool) {
			v, ok := mapper(arg, flags)
			return v, ok && !isNil(v)
		}
	case p.client.argTypes.Has(p.typ):
		types, typ := p.client.argTypes, p.typ
		param.mapper = func(arg *Argument, flags Flag) (any, bool) { return types.Map(typ, arg, flags) }
	default:
		return nil, fmt.Errorf("parameter %s (%s): %w", p.name, p.typ, ErrMissingArgumentMapper)
	}
	return param, nil
}

// Parameter is a built, immutable handler parameter.
type Parameter struct {
	position  int
	name      string
	typ       reflect.Type
	kind      paramKind
	index     int
	width     int
	flags     Flag
	required  bool
	onMissing MissingArgumentHandler
	mapper    ArgumentMapper
}

func (p *Parameter) Name() string       { return p.name }
func (p *Parameter) Type() reflect.Type { return p.typ }
func (p *Parameter) Index() int         { return p.index }
func (p *Parameter) Width() int         { return p.width }
func (p *Parameter) Flags() Flag        { return p.flags }
func (p *Parameter) IsRequired() bool   { return p.required }

// IsInjected reports whether the parameter receives the event or its context
// instead of argument tokens.
func (p *Parameter) IsInjected() bool { return p.kind != paramToken }

// window returns the joined argument over tokens [from, to).
func window(list *ArgumentList, from, to int) (*Argument, []int) {
	if to-from == 1 {
		return list.Get(from), []int{from}
	}
	parts := make([]string, 0, to-from)
	indices := make([]int, 0, to-from)
	for j := from; j < to; j++ {
		parts = append(parts, list.Get(j).String())
		indices = append(indices, j)
	}
	return NewArgument(list.Event(), strings.Join(parts, " ")), indices
}

// try maps the candidate starting at position i: a full window for a fixed
// width, the whole unclaimed run from i for a greedy one.
func (p *Parameter) try(list *ArgumentList, claimed *indexSet, i int) (any, []int, bool) {
	switch {
	case p.width == 1:
		v, ok := p.mapper(list.Get(i), p.flags)
		return v, []int{i}, ok
	case p.width > 1:
		end := i + p.width
		if end > list.Len() {
			return nil, nil, false
		}
		for j := i; j < end; j++ {
			if claimed.has(j) {
				return nil, nil, false
			}
		}
		arg, indices := window(list, i, end)
		v, ok := p.mapper(arg, p.flags)
		return v, indices, ok
	default:
		end := i
		for end < list.Len() && !claimed.has(end) {
			end++
		}
		arg, indices := window(list, i, end)
		v, ok := p.mapper(arg, p.flags)
		return v, indices, ok
	}
}

// bind scans for the first position whose candidate maps successfully and
// claims its indices.
func (p *Parameter) bind(list *ArgumentList, claimed *indexSet) (any, bool) {
	start, limit := 0, list.Len()
	if p.index >= 0 {
		start, limit = p.index, min(p.index+1, list.Len())
	}
	for i := start; i < limit; i++ {
		if claimed.has(i) {
			continue
		}
		if v, indices, ok := p.try(list, claimed, i); ok {
			claimed.addAll(indices)
			return v, true
		}
	}
	return nil, false
}

func (p *Parameter) String() string {
	return fmt.Sprintf("%s %s", p.name, p.typ)
}

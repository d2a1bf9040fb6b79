package breadbot

import "reflect"

// CommandModifier rewrites a handler builder carrying a property.
type CommandModifier func(property any, b *HandlerBuilder)

// ParameterModifier rewrites a parameter builder carrying a property.
type ParameterModifier func(property any, p *ParameterBuilder)

// Modifiers maps property types to the callbacks that give them effect.
type Modifiers struct {
	command   map[reflect.Type][]CommandModifier
	parameter map[reflect.Type][]ParameterModifier
}

func newModifiers() *Modifiers {
	return &Modifiers{
		command:   make(map[reflect.Type][]CommandModifier),
		parameter: make(map[reflect.Type][]ParameterModifier),
	}
}

// PutCommand replaces the modifiers for t.
func (m *Modifiers) PutCommand(t reflect.Type, fn CommandModifier) {
	m.command[t] = []CommandModifier{fn}
}

// AppendCommand chains fn after the existing modifiers for t.
func (m *Modifiers) AppendCommand(t reflect.Type, fn CommandModifier) {
	m.command[t] = append(m.command[t], fn)
}

// PutParameter replaces the parameter modifiers for t.
func (m *Modifiers) PutParameter(t reflect.Type, fn ParameterModifier) {
	m.parameter[t] = []ParameterModifier{fn}
}

// AppendParameter chains fn after the existing parameter modifiers for t.
func (m *Modifiers) AppendParameter(t reflect.Type, fn ParameterModifier) {
	m.parameter[t] = append(m.parameter[t], fn)
}

// HasCommand reports whether a command modifier is registered for t.
func (m *Modifiers) HasCommand(t reflect.Type) bool { return len(m.command[t]) > 0 }

// ApplyCommand runs the modifiers for every property stored directly on b.
func (m *Modifiers) ApplyCommand(b *HandlerBuilder) {
	for _, t := range b.props.Own() {
		v, _ := b.props.Get(t)
		for _, fn := range m.command[t] {
			fn(v, b)
		}
	}
}

// ApplyParameter runs the modifiers for every property stored directly on p.
func (m *Modifiers) ApplyParameter(p *ParameterBuilder) {
	for _, t := range p.props.Own() {
		v, _ := p.props.Get(t)
		for _, fn := range m.parameter[t] {
			fn(v, p)
		}
	}
}

// PutCommandModifier replaces the command modifier for properties of type T.
func PutCommandModifier[T any](b *ClientBuilder, fn func(T, *HandlerBuilder)) {
	b.modifiers.PutCommand(reflect.TypeFor[T](), func(v any, hb *HandlerBuilder) { fn(v.(T), hb) })
}

// AppendCommandModifier chains a command modifier for properties of type T.
func AppendCommandModifier[T any](b *ClientBuilder, fn func(T, *HandlerBuilder)) {
	b.modifiers.AppendCommand(reflect.TypeFor[T](), func(v any, hb *HandlerBuilder) { fn(v.(T), hb) })
}

// PutParameterModifier replaces the parameter modifier for properties of type T.
func PutParameterModifier[T any](b *ClientBuilder, fn func(T, *ParameterBuilder)) {
	b.modifiers.PutParameter(reflect.TypeFor[T](), func(v any, pb *ParameterBuilder) { fn(v.(T), pb) })
}

// AppendParameterModifier chains a parameter modifier for properties of type T.
func AppendParameterModifier[T any](b *ClientBuilder, fn func(T, *ParameterBuilder)) {
	b.modifiers.AppendParameter(reflect.TypeFor[T](), func(v any, pb *ParameterBuilder) { fn(v.(T), pb) })
}

func registerDefaultModifiers(b *ClientBuilder) {
	PutCommandModifier(b, func(n Name, hb *HandlerBuilder) { hb.SetName(string(n)) })
	PutCommandModifier(b, func(d Description, hb *HandlerBuilder) { hb.SetDescription(string(d)) })
	PutCommandModifier(b, func(g Group, hb *HandlerBuilder) { hb.SetGroup(string(g)) })
	PutCommandModifier(b, func(_ Persistent, hb *HandlerBuilder) { hb.SetPersistent(true) })
	PutCommandModifier(b, func(_ RetainProperties, hb *HandlerBuilder) { hb.SetRetainProperties(true) })
	PutCommandModifier(b, func(s Split, hb *HandlerBuilder) { hb.SetSplitRegex(s.Pattern, s.Limit) })

	PutParameterModifier(b, func(n Name, pb *ParameterBuilder) { pb.SetName(string(n)) })
	PutParameterModifier(b, func(w Width, pb *ParameterBuilder) { pb.SetWidth(int(w)) })
	PutParameterModifier(b, func(i Index, pb *ParameterBuilder) { pb.SetIndex(int(i)) })
	PutParameterModifier(b, func(_ Required, pb *ParameterBuilder) { pb.SetRequired(true) })
	PutParameterModifier(b, func(f Flag, pb *ParameterBuilder) { pb.SetFlags(pb.Flags() | f) })
}

package breadbot

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// HandlerBuilder configures one command node until the client is built.
type HandlerBuilder struct {
	client *ClientBuilder
	parent *HandlerBuilder

	keys        []string
	name        string
	group       string
	description string

	typ         reflect.Type
	method      string
	fn          reflect.Value
	hasReceiver bool
	returnType  reflect.Type
	returnsErr  bool

	supply     func() (reflect.Value, error)
	field      []int
	inherit    bool
	persistent bool
	retain     bool

	split      *regexp.Regexp
	splitLimit int

	params        []*ParameterBuilder
	children      []*HandlerBuilder
	preprocessors []Preprocessor
	result        ResultHandler
	props         *PropertyMap
	err           error
}

func newHandlerBuilder(client *ClientBuilder, props *PropertyMap) *HandlerBuilder {
	if props == nil {
		props = NewPropertyMap(nil)
	}
	return &HandlerBuilder{client: client, props: props}
}

// Keys returns the configured keys.
func (b *HandlerBuilder) Keys() []string { return append([]string(nil), b.keys...) }

func (b *HandlerBuilder) Name() string        { return b.name }
func (b *HandlerBuilder) Group() string       { return b.group }
func (b *HandlerBuilder) Description() string { return b.description }

// Parent returns the enclosing builder, or nil at the top level.
func (b *HandlerBuilder) Parent() *HandlerBuilder { return b.parent }

// Properties returns the builder's property map.
func (b *HandlerBuilder) Properties() *PropertyMap { return b.props }

// SetKeys replaces the keys. Keys are matched without regard to case.
func (b *HandlerBuilder) SetKeys(keys ...string) *HandlerBuilder {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	b.keys = clean
	return b
}

func (b *HandlerBuilder) SetName(name string) *HandlerBuilder {
	b.name = name
	return b
}

func (b *HandlerBuilder) SetDescription(description string) *HandlerBuilder {
	b.description = description
	return b
}

func (b *HandlerBuilder) SetGroup(group string) *HandlerBuilder {
	b.group = group
	return b
}

// SetPersistent makes the handler obtain its receiver once at build time
// instead of on every dispatch.
func (b *HandlerBuilder) SetPersistent(persistent bool) *HandlerBuilder {
	b.persistent = persistent
	return b
}

// SetRetainProperties keeps a compacted copy of the property map on the
// built handler.
func (b *HandlerBuilder) SetRetainProperties(retain bool) *HandlerBuilder {
	b.retain = retain
	return b
}

// SetSplitRegex overrides argument tokenization. A nil pattern restores the
// default; limit caps the token count when positive.
func (b *HandlerBuilder) SetSplitRegex(pattern *regexp.Regexp, limit int) *HandlerBuilder {
	b.split = pattern
	b.splitLimit = limit
	return b
}

// PutProperty stores v and applies its modifiers.
func (b *HandlerBuilder) PutProperty(v any) *HandlerBuilder {
	b.props.Put(v)
	b.client.modifiers.ApplyCommand(b)
	return b
}

// AddPreprocessor attaches p. A preprocessor with the same identifier is
// replaced.
func (b *HandlerBuilder) AddPreprocessor(p Preprocessor) *HandlerBuilder {
	for i, existing := range b.preprocessors {
		if existing.Identifier() == p.Identifier() {
			b.preprocessors[i] = p
			return b
		}
	}
	b.preprocessors = append(b.preprocessors, p)
	return b
}

// AddPreprocessorFunc attaches a wrapping preprocessor.
func (b *HandlerBuilder) AddPreprocessorFunc(id string, fn PreprocessorFunc) *HandlerBuilder {
	return b.AddPreprocessor(NewPreprocessor(id, fn))
}

// AddPreprocessorPredicate attaches a guarding preprocessor.
func (b *HandlerBuilder) AddPreprocessorPredicate(id string, fn PreprocessorPredicate) *HandlerBuilder {
	return b.AddPreprocessor(NewPredicate(id, fn))
}

// Parameters returns the parameter builders that consume or receive values.
func (b *HandlerBuilder) Parameters() []*ParameterBuilder {
	return append([]*ParameterBuilder(nil), b.params...)
}

// Parameter returns the i-th parameter, receiver excluded.
func (b *HandlerBuilder) Parameter(i int) *ParameterBuilder {
	if i < 0 || i >= len(b.params) {
		return nil
	}
	return b.params[i]
}

// SetResultHandler makes fn handle this command's return value in place of
// the handler registered for its return type.
func (b *HandlerBuilder) SetResultHandler(fn ResultHandler) *HandlerBuilder {
	b.result = fn
	return b
}

// SubCommands returns the child builders.
func (b *HandlerBuilder) SubCommands() []*HandlerBuilder {
	return append([]*HandlerBuilder(nil), b.children...)
}

// SubCommand returns the child owning key, ignoring case.
func (b *HandlerBuilder) SubCommand(key string) *HandlerBuilder {
	for _, c := range b.children {
		for _, k := range c.keys {
			if strings.EqualFold(k, key) {
				return c
			}
		}
	}
	return nil
}

// AddCommand adds a function sub-command.
func (b *HandlerBuilder) AddCommand(fn any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	child, err := b.client.fromFunc(fn, NewPropertyMap(b.props))
	return b.adopt(child, err, configure)
}

// AddObject adds the command struct obj as a sub-command, using obj as the
// receiver on every dispatch.
func (b *HandlerBuilder) AddObject(obj any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	child, err := b.client.fromObject(obj)
	return b.adopt(child, err, configure)
}

// AddType adds a command struct type as a sub-command with a fresh receiver
// per dispatch.
func (b *HandlerBuilder) AddType(t reflect.Type, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	child, err := b.client.fromType(t, nil)
	return b.adopt(child, err, configure)
}

// AddSupplier adds a sub-command whose receiver comes from supplier.
func (b *HandlerBuilder) AddSupplier(supplier func() any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	child, err := b.client.fromSupplier(supplier)
	return b.adopt(child, err, configure)
}

func (b *HandlerBuilder) adopt(child *HandlerBuilder, err error, configure []func(*HandlerBuilder)) *HandlerBuilder {
	if err != nil {
		b.fail(err)
		return newHandlerBuilder(b.client, nil)
	}
	child.parent = b
	child.props.parent = b.props
	for _, fn := range configure {
		fn(child)
	}
	b.children = append(b.children, child)
	return child
}

func (b *HandlerBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *HandlerBuilder) label() string {
	if len(b.keys) > 0 {
		return b.keys[0]
	}
	if b.method != "" && b.typ != nil {
		return b.typ.Name() + "." + b.method
	}
	if b.typ != nil {
		return b.typ.Name()
	}
	return "<anonymous>"
}

// build produces the handler and its subtree.
func (b *HandlerBuilder) build(parent *Handler) (*Handler, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.client.modifiers.ApplyCommand(b)
	if len(b.keys) == 0 {
		return nil, fmt.Errorf("%s: %w", b.label(), ErrMissingCommandKey)
	}

	h := &Handler{
		keys:        append([]string(nil), b.keys...),
		name:        b.name,
		group:       b.group,
		description: b.description,
		typ:         b.typ,
		method:      b.method,
		fn:          b.fn,
		hasReceiver: b.hasReceiver,
		persistent:  b.persistent,
		split:       b.split,
		splitLimit:  b.splitLimit,
		parent:      parent,
		subs:        make(map[string]*Handler),
	}
	if h.name == "" {
		h.name = h.keys[0]
	}
	if h.split == nil && parent != nil && b.inherit {
		h.split, h.splitLimit = parent.split, parent.splitLimit
	}

	if err := b.buildReceiver(h, parent); err != nil {
		return nil, err
	}

	if h.IsExecutable() {
		for _, pb := range b.params {
			p, err := pb.build()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.label(), err)
			}
			h.params = append(h.params, p)
		}
		h.result = b.result
		if h.result == nil {
			fn, ok := b.client.results.Lookup(b.returnType)
			if !ok {
				return nil, fmt.Errorf("%s returns %s: %w", b.label(), b.returnType, ErrNoResultHandler)
			}
			h.result = fn
		}
		h.returnsValue = b.returnType != nil
		h.returnsError = b.returnsErr
	}

	h.preprocessors = b.buildPreprocessors()
	if b.retain {
		h.props = b.props.Compact()
	}

	for _, cb := range b.children {
		child, err := cb.build(h)
		if err != nil {
			return nil, err
		}
		for _, k := range child.keys {
			lk := strings.ToLower(k)
			if _, dup := h.subs[lk]; dup {
				return nil, fmt.Errorf("%s %s: %w", b.label(), k, ErrDuplicateKey)
			}
			h.subs[lk] = child
		}
		h.children = append(h.children, child)
	}
	return h, nil
}

func (b *HandlerBuilder) buildReceiver(h *Handler, parent *Handler) error {
	switch {
	case b.field != nil && parent != nil && parent.receiver != nil:
		base, index := parent.receiver, b.field
		h.receiver = func() (reflect.Value, error) {
			v, err := base()
			if err != nil {
				return reflect.Value{}, err
			}
			return fieldReceiver(v, index), nil
		}
	case b.inherit && parent != nil:
		h.receiver = parent.receiver
	case b.supply != nil:
		h.receiver = b.supply
	}
	if !b.persistent || h.receiver == nil {
		return nil
	}
	v, err := h.receiver()
	if err != nil {
		return wrapError(b.label(), err)
	}
	h.receiver = func() (reflect.Value, error) { return v, nil }
	return nil
}

// fieldReceiver returns a pointer to the nested command struct at index,
// allocating nil pointer fields.
func fieldReceiver(v reflect.Value, index []int) reflect.Value {
	f := v.Elem().FieldByIndex(index)
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		return f
	}
	return f.Addr()
}

func (b *HandlerBuilder) buildPreprocessors() []Preprocessor {
	list := append([]Preprocessor(nil), b.preprocessors...)
	seen := make(map[string]bool, len(list))
	for _, p := range list {
		seen[p.Identifier()] = true
	}
	for _, p := range b.client.preprocessors.create(b.props) {
		if !seen[p.Identifier()] {
			seen[p.Identifier()] = true
			list = append(list, p)
		}
	}
	b.client.preprocessors.Sort(list)
	return list
}

// String renders the builder subtree, one node per line.
func (b *HandlerBuilder) String() string {
	var sb strings.Builder
	b.write(&sb, 0)
	return sb.String()
}

func (b *HandlerBuilder) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(b.label())
	if len(b.keys) > 1 {
		fmt.Fprintf(sb, " %v", b.keys[1:])
	}
	if len(b.params) > 0 {
		names := make([]string, 0, len(b.params))
		for _, p := range b.params {
			if p.kind == paramToken {
				names = append(names, fmt.Sprintf("<%s %s>", p.name, p.typ))
			}
		}
		if len(names) > 0 {
			sb.WriteString(" " + strings.Join(names, " "))
		}
	}
	if b.description != "" {
		sb.WriteString(" - " + b.description)
	}
	sb.WriteByte('\n')
	for _, c := range b.children {
		c.write(sb, depth+1)
	}
}

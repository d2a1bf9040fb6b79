package breadbot

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"unicode"
)

var (
	errorType        = reflect.TypeFor[error]()
	annotatedType    = reflect.TypeFor[Annotated]()
	tagPropertyType  = reflect.TypeFor[TagProperty]()
	anonymousFuncRef = regexp.MustCompile(`^(func)?\d+$`)
)

// normalizeKey derives a key from a Go identifier: PingCommand, CmdPing and
// Ping all become "ping".
func normalizeKey(name string) string {
	if trimmed := strings.TrimSuffix(name, "Command"); trimmed != "" {
		name = trimmed
	}
	if rest, ok := strings.CutPrefix(name, "Cmd"); ok && rest != "" {
		name = rest
	}
	return strings.ToLower(name)
}

// isSubCommandMethod reports whether name follows the Cmd<Name> convention.
func isSubCommandMethod(name string) bool {
	rest, ok := strings.CutPrefix(name, "Cmd")
	if !ok || rest == "" {
		return false
	}
	return unicode.IsUpper([]rune(rest)[0])
}

func funcKey(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if name == "" || anonymousFuncRef.MatchString(name) {
		return ""
	}
	return normalizeKey(name)
}

// signature reads the parameters and return values of ft, skipping the first
// skip inputs.
func (c *ClientBuilder) signature(b *HandlerBuilder, ft reflect.Type, skip int, ann Annotations, method string) error {
	if ft.IsVariadic() {
		return fmt.Errorf("%s: variadic: %w", b.label(), ErrUnsupportedHandlerFunc)
	}
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			b.returnsErr = true
		} else {
			b.returnType = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("%s: second result must be error: %w", b.label(), ErrUnsupportedHandlerFunc)
		}
		b.returnType = ft.Out(0)
		b.returnsErr = true
	default:
		return fmt.Errorf("%s: too many results: %w", b.label(), ErrUnsupportedHandlerFunc)
	}

	for i := skip; i < ft.NumIn(); i++ {
		pb := newParameterBuilder(c, i-skip, ft.In(i), b.props)
		for _, v := range ann[fmt.Sprintf("%s.%d", method, i-skip)] {
			pb.props.Put(v)
		}
		c.modifiers.ApplyParameter(pb)
		b.params = append(b.params, pb)
	}
	return nil
}

func (c *ClientBuilder) fromFunc(fn any, props *PropertyMap) (*HandlerBuilder, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%T: %w", fn, ErrUnsupportedHandlerFunc)
	}
	b := newHandlerBuilder(c, props)
	b.fn = v
	if key := funcKey(v); key != "" {
		b.keys = []string{key}
	}
	if err := c.signature(b, v.Type(), 0, nil, ""); err != nil {
		return nil, err
	}
	c.modifiers.ApplyCommand(b)
	return b, nil
}

func (c *ClientBuilder) fromObject(obj any) (*HandlerBuilder, error) {
	v := reflect.ValueOf(obj)
	switch {
	case !v.IsValid():
		return nil, &BreadBotError{Source: "<nil>", Err: ErrNotACommand}
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct:
	case v.Kind() == reflect.Struct:
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	default:
		return nil, &BreadBotError{Source: v.Type().String(), Err: ErrNotACommand}
	}
	return c.fromType(v.Type(), func() (reflect.Value, error) { return v, nil })
}

func (c *ClientBuilder) fromSupplier(supplier func() any) (*HandlerBuilder, error) {
	supply := func() (v reflect.Value, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		v = reflect.ValueOf(supplier())
		switch {
		case !v.IsValid():
			return v, ErrNotACommand
		case v.Kind() == reflect.Struct:
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}
		return v, nil
	}
	sample, err := supply()
	if err != nil {
		return nil, wrapError("supplier", err)
	}
	return c.fromType(sample.Type(), supply)
}

// commandInfo is what reflection finds on a command struct.
type commandInfo struct {
	typ    reflect.Type
	keys   []string
	props  *PropertyMap
	ann    Annotations
	main   *reflect.Method
	subs   []reflect.Method
	nested []reflect.StructField
}

func (i *commandInfo) isCommand(tagged bool) bool {
	return tagged || i.main != nil || len(i.subs) > 0 || len(i.nested) > 0
}

func hasAnnotation(list []any, t reflect.Type) ([]string, bool) {
	for _, v := range list {
		switch a := v.(type) {
		case Command:
			if t == commandType {
				return a.Keys, true
			}
		case MainCommand:
			if t == mainCommandType {
				return a.Keys, true
			}
		}
	}
	return nil, false
}

func putAnnotations(props *PropertyMap, list []any) {
	for _, v := range list {
		switch v.(type) {
		case Command, MainCommand:
			continue
		}
		props.Put(v)
	}
}

// inspect reflects over st. ok is false when st declares no commands.
func inspect(st reflect.Type, seen map[reflect.Type]bool) (*commandInfo, bool) {
	if st.Kind() != reflect.Struct || seen[st] {
		return nil, false
	}
	seen[st] = true
	defer delete(seen, st)

	pt := reflect.PointerTo(st)
	info := &commandInfo{typ: st, props: NewPropertyMap(nil), ann: Annotations{}}
	if pt.Implements(annotatedType) {
		info.ann = reflect.New(st).Interface().(Annotated).Annotations()
	}
	putAnnotations(info.props, info.ann[""])

	tagged := false
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		ft := f.Type
		switch {
		case f.Anonymous && ft == commandType:
			tagged = true
			info.keys = splitTagList(f.Tag.Get("keys"))
			if v := f.Tag.Get("name"); v != "" {
				info.props.Put(Name(v))
			}
			if v := f.Tag.Get("group"); v != "" {
				info.props.Put(Group(v))
			}
			if v := f.Tag.Get("desc"); v != "" {
				info.props.Put(Description(v))
			}
		case f.Anonymous && reflect.PointerTo(ft).Implements(tagPropertyType):
			info.props.Put(reflect.New(ft).Interface().(TagProperty).FromTag(f.Tag))
		case f.Anonymous && ft.Kind() == reflect.Struct && ft.NumField() == 0:
			info.props.Put(reflect.Zero(ft).Interface())
		case !f.Anonymous && f.IsExported():
			nt := ft
			if nt.Kind() == reflect.Pointer {
				nt = nt.Elem()
			}
			if _, ok := inspect(nt, seen); ok {
				info.nested = append(info.nested, f)
			}
		}
	}

	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		list := info.ann[m.Name]
		if _, ok := hasAnnotation(list, mainCommandType); ok || m.Name == "Main" {
			info.main = &m
			continue
		}
		if _, ok := hasAnnotation(list, commandType); ok || isSubCommandMethod(m.Name) {
			info.subs = append(info.subs, m)
		}
	}
	return info, info.isCommand(tagged)
}

// IsCommandType reports whether t, or the struct it points to, declares
// commands.
func IsCommandType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	_, ok := inspect(t, make(map[reflect.Type]bool))
	return ok
}

// fromType builds the handler tree for a command struct. A nil supply
// allocates a fresh receiver per dispatch.
func (c *ClientBuilder) fromType(t reflect.Type, supply func() (reflect.Value, error)) (*HandlerBuilder, error) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	info, ok := inspect(st, make(map[reflect.Type]bool))
	if !ok {
		return nil, &BreadBotError{Source: t.String(), Err: ErrNotACommand}
	}
	if supply == nil {
		supply = func() (reflect.Value, error) { return reflect.New(st), nil }
	}
	return c.fromInfo(info, supply)
}

func (c *ClientBuilder) fromInfo(info *commandInfo, supply func() (reflect.Value, error)) (*HandlerBuilder, error) {
	root := newHandlerBuilder(c, info.props.Compact())
	root.typ = info.typ
	root.supply = supply
	root.keys = info.keys

	if info.main != nil {
		m := *info.main
		mainKeys, _ := hasAnnotation(info.ann[m.Name], mainCommandType)
		putAnnotations(root.props, info.ann[m.Name])
		root.method = m.Name
		root.fn = m.Func
		root.hasReceiver = true
		if len(root.keys) == 0 {
			root.keys = mainKeys
		}
		if err := c.signature(root, m.Type, 1, info.ann, m.Name); err != nil {
			return nil, err
		}
	}
	if len(root.keys) == 0 {
		root.keys = []string{normalizeKey(info.typ.Name())}
	}
	c.modifiers.ApplyCommand(root)

	for _, m := range info.subs {
		mb := newHandlerBuilder(c, NewPropertyMap(root.props))
		mb.parent = root
		mb.typ = info.typ
		mb.method = m.Name
		mb.fn = m.Func
		mb.hasReceiver = true
		mb.inherit = true
		putAnnotations(mb.props, info.ann[m.Name])
		if keys, _ := hasAnnotation(info.ann[m.Name], commandType); len(keys) > 0 {
			mb.keys = keys
		} else {
			mb.keys = []string{normalizeKey(m.Name)}
		}
		if err := c.signature(mb, m.Type, 1, info.ann, m.Name); err != nil {
			return nil, err
		}
		c.modifiers.ApplyCommand(mb)
		root.children = append(root.children, mb)
	}

	for _, f := range info.nested {
		nt := f.Type
		if nt.Kind() == reflect.Pointer {
			nt = nt.Elem()
		}
		child, err := c.fromType(nt, nil)
		if err != nil {
			return nil, wrapError(info.typ.Name()+"."+f.Name, err)
		}
		child.parent = root
		child.props.parent = root.props
		child.field = f.Index
		root.children = append(root.children, child)
	}
	return root, nil
}

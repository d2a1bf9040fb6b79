package breadbot

import (
	"reflect"
	"strconv"

	"github.com/keshon/breadbot/pkg/arguments"
)

// ArgumentPredicate cheaply tests whether an argument can map to a type.
type ArgumentPredicate func(arg *Argument, flags Flag) bool

// ArgumentMapper converts an argument, reporting false when it cannot.
type ArgumentMapper func(arg *Argument, flags Flag) (any, bool)

type argumentType struct {
	predicate ArgumentPredicate
	mapper    ArgumentMapper
}

func (t *argumentType) apply(arg *Argument, flags Flag) (any, bool) {
	if t.predicate != nil && !t.predicate(arg, flags) {
		return nil, false
	}
	return t.mapper(arg, flags)
}

// ArgumentTypes maps target types to their mappers.
type ArgumentTypes struct {
	types map[reflect.Type]*argumentType
}

// NewArgumentTypes returns a registry holding the built-in mappers.
func NewArgumentTypes() *ArgumentTypes {
	r := &ArgumentTypes{types: make(map[reflect.Type]*argumentType)}
	registerDefaultArgumentTypes(r)
	return r
}

// Register sets the predicate (optional) and mapper for t.
func (r *ArgumentTypes) Register(t reflect.Type, predicate ArgumentPredicate, mapper ArgumentMapper) {
	r.types[t] = &argumentType{predicate: predicate, mapper: mapper}
}

// RegisterSimple registers a flag-agnostic mapper for t.
func (r *ArgumentTypes) RegisterSimple(t reflect.Type, isType func(*Argument) bool, as func(*Argument) (any, bool)) {
	var predicate ArgumentPredicate
	if isType != nil {
		predicate = func(arg *Argument, _ Flag) bool { return isType(arg) }
	}
	r.Register(t, predicate, func(arg *Argument, _ Flag) (any, bool) { return as(arg) })
}

// Has reports whether t, or the element type of pointer t, can be mapped.
func (r *ArgumentTypes) Has(t reflect.Type) bool {
	_, _, ok := r.lookup(t)
	return ok
}

func (r *ArgumentTypes) lookup(t reflect.Type) (*argumentType, bool, bool) {
	if at, ok := r.types[t]; ok {
		return at, false, true
	}
	if t.Kind() == reflect.Pointer {
		if at, ok := r.types[t.Elem()]; ok {
			return at, true, true
		}
	}
	return nil, false, false
}

// Map converts arg to t. Pointer targets are served by their element mapper.
// A mapper yielding nil leaves the parameter unbound.
func (r *ArgumentTypes) Map(t reflect.Type, arg *Argument, flags Flag) (any, bool) {
	at, pointer, ok := r.lookup(t)
	if !ok {
		return nil, false
	}
	v, ok := at.apply(arg, flags)
	if !ok || isNil(v) {
		return nil, false
	}
	if pointer {
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(v).Convert(t.Elem()))
		return p.Interface(), true
	}
	return v, true
}

// RegisterArgumentMapper registers a typed mapper for T.
func RegisterArgumentMapper[T any](b *ClientBuilder, predicate ArgumentPredicate, mapper func(*Argument, Flag) (T, bool)) {
	b.argTypes.Register(reflect.TypeFor[T](), predicate, func(arg *Argument, flags Flag) (any, bool) {
		return mapper(arg, flags)
	})
}

func parseSigned(arg *Argument, flags Flag, bits int) (int64, bool) {
	var (
		n   int64
		err error
	)
	if flags.Has(FlagHex) {
		if !arg.IsHex() {
			return 0, false
		}
		n, err = strconv.ParseInt(arguments.StripHexPrefix(arg.String()), 16, bits)
	} else {
		valid := arg.IsLong()
		if bits <= 32 {
			valid = arg.IsInteger()
		}
		if !valid {
			return 0, false
		}
		n, err = strconv.ParseInt(arg.String(), 10, bits)
	}
	if err != nil {
		return 0, false
	}
	if flags.Has(FlagUnsigned) && n < 0 {
		return 0, false
	}
	return n, true
}

func registerDefaultArgumentTypes(r *ArgumentTypes) {
	r.Register(reflect.TypeFor[int32](), nil, func(arg *Argument, flags Flag) (any, bool) {
		n, ok := parseSigned(arg, flags, 32)
		return int32(n), ok
	})
	r.Register(reflect.TypeFor[int](), nil, func(arg *Argument, flags Flag) (any, bool) {
		n, ok := parseSigned(arg, flags, strconv.IntSize)
		return int(n), ok
	})
	r.Register(reflect.TypeFor[int64](), nil, func(arg *Argument, flags Flag) (any, bool) {
		n, ok := parseSigned(arg, flags, 64)
		return n, ok
	})
	r.Register(reflect.TypeFor[float64](), func(arg *Argument, _ Flag) bool { return arg.IsFloat() },
		func(arg *Argument, _ Flag) (any, bool) { return arg.Float() })
	r.Register(reflect.TypeFor[float32](), func(arg *Argument, _ Flag) bool { return arg.IsFloat() },
		func(arg *Argument, _ Flag) (any, bool) {
			f, err := strconv.ParseFloat(arg.String(), 32)
			return float32(f), err == nil
		})
	r.Register(reflect.TypeFor[bool](), func(arg *Argument, _ Flag) bool { return arg.IsBoolean() },
		func(arg *Argument, _ Flag) (any, bool) { return arg.Bool() })
	r.Register(reflect.TypeFor[string](), nil, func(arg *Argument, _ Flag) (any, bool) {
		return arg.String(), true
	})
	r.Register(reflect.TypeFor[arguments.Range](), func(arg *Argument, _ Flag) bool {
		return arg.IsRange() || arg.IsInteger()
	}, func(arg *Argument, _ Flag) (any, bool) { return arg.Range() })
	r.Register(reflect.TypeFor[*Argument](), nil, func(arg *Argument, _ Flag) (any, bool) {
		return arg, true
	})
}

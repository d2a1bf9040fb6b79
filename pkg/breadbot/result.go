package breadbot

import (
	"fmt"
	"reflect"

	"github.com/bwmarrin/discordgo"
)

// ResultHandler turns a handler's return value into a side effect.
type ResultHandler func(ev *CommandEvent, h *Handler, result any) error

// Response is a return value that knows how to deliver itself.
type Response interface {
	Send(ev *CommandEvent) error
}

type interfaceResult struct {
	iface   reflect.Type
	handler ResultHandler
}

// ResultHandlers selects a ResultHandler by return type. Exact types win;
// otherwise interface registrations are tried, most recent first.
type ResultHandlers struct {
	exact      map[reflect.Type]ResultHandler
	interfaces []interfaceResult
}

// NewResultHandlers returns a registry holding the built-in handlers.
func NewResultHandlers() *ResultHandlers {
	r := &ResultHandlers{exact: make(map[reflect.Type]ResultHandler)}
	registerDefaultResultHandlers(r)
	return r
}

// Register binds fn to t. Interface types also match their implementations.
func (r *ResultHandlers) Register(t reflect.Type, fn ResultHandler) {
	r.exact[t] = fn
	if t.Kind() == reflect.Interface {
		r.interfaces = append(r.interfaces, interfaceResult{iface: t, handler: fn})
	}
}

// Lookup returns the handler for t. A nil t is a function without a value.
func (r *ResultHandlers) Lookup(t reflect.Type) (ResultHandler, bool) {
	if t == nil {
		return voidResult, true
	}
	if fn, ok := r.exact[t]; ok {
		return fn, true
	}
	for i := len(r.interfaces) - 1; i >= 0; i-- {
		if t.Implements(r.interfaces[i].iface) {
			return r.interfaces[i].handler, true
		}
	}
	return nil, false
}

// RegisterResultHandler binds a typed result handler for T.
func RegisterResultHandler[T any](b *ClientBuilder, fn func(ev *CommandEvent, h *Handler, result T) error) {
	b.results.Register(reflect.TypeFor[T](), func(ev *CommandEvent, h *Handler, result any) error {
		v, ok := result.(T)
		if !ok {
			return nil
		}
		return fn(ev, h, v)
	})
}

func voidResult(*CommandEvent, *Handler, any) error { return nil }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func registerDefaultResultHandlers(r *ResultHandlers) {
	r.Register(reflect.TypeFor[string](), func(ev *CommandEvent, _ *Handler, result any) error {
		if s := result.(string); s != "" {
			_, err := ev.Reply(s)
			return err
		}
		return nil
	})
	r.Register(reflect.TypeFor[*discordgo.MessageEmbed](), func(ev *CommandEvent, _ *Handler, result any) error {
		_, err := ev.ReplyEmbed(result.(*discordgo.MessageEmbed))
		return err
	})
	r.Register(reflect.TypeFor[*discordgo.MessageSend](), func(ev *CommandEvent, _ *Handler, result any) error {
		_, err := ev.ReplyComplex(result.(*discordgo.MessageSend))
		return err
	})
	r.Register(reflect.TypeFor[fmt.Stringer](), func(ev *CommandEvent, _ *Handler, result any) error {
		_, err := ev.Reply(result.(fmt.Stringer).String())
		return err
	})
	r.Register(reflect.TypeFor[Response](), func(ev *CommandEvent, _ *Handler, result any) error {
		return result.(Response).Send(ev)
	})
}

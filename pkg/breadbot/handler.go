package breadbot

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/keshon/breadbot/pkg/arguments"
)

// Handler is a built command node. It is immutable and safe for concurrent
// dispatch.
type Handler struct {
	keys        []string
	name        string
	group       string
	description string

	typ         reflect.Type
	method      string
	fn          reflect.Value
	hasReceiver bool
	receiver    func() (reflect.Value, error)
	persistent  bool

	params        []*Parameter
	subs          map[string]*Handler
	children      []*Handler
	preprocessors []Preprocessor
	result        ResultHandler
	returnsValue  bool
	returnsError  bool

	split      *regexp.Regexp
	splitLimit int
	props      *PropertyMap
	parent     *Handler
}

// Keys returns the handler's keys; the first is primary.
func (h *Handler) Keys() []string { return append([]string(nil), h.keys...) }

// Key returns the primary key.
func (h *Handler) Key() string { return h.keys[0] }

func (h *Handler) Name() string        { return h.name }
func (h *Handler) Group() string       { return h.group }
func (h *Handler) Description() string { return h.description }

// Type returns the command struct the handler was reflected from, or nil for
// function handlers.
func (h *Handler) Type() reflect.Type { return h.typ }

// Method returns the reflected method name, or "" for function handlers and
// containers.
func (h *Handler) Method() string { return h.method }

// IsExecutable reports whether the handler has code to run. Containers only
// route to sub-commands.
func (h *Handler) IsExecutable() bool { return h.fn.IsValid() }

func (h *Handler) IsPersistent() bool { return h.persistent }

// Parent returns the enclosing handler, or nil at the top level.
func (h *Handler) Parent() *Handler { return h.parent }

// Root returns the top-level ancestor.
func (h *Handler) Root() *Handler {
	r := h
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Path returns the primary keys from the root down to h, space separated.
func (h *Handler) Path() string {
	var keys []string
	for n := h; n != nil; n = n.parent {
		keys = append([]string{n.keys[0]}, keys...)
	}
	return strings.Join(keys, " ")
}

// SubCommands returns the children in declaration order.
func (h *Handler) SubCommands() []*Handler { return append([]*Handler(nil), h.children...) }

// SubCommand looks up a child by key, ignoring case.
func (h *Handler) SubCommand(key string) *Handler { return h.subs[strings.ToLower(key)] }

// Preprocessors returns the sorted preprocessor list.
func (h *Handler) Preprocessors() []Preprocessor {
	return append([]Preprocessor(nil), h.preprocessors...)
}

// Parameters returns the built parameters in declaration order.
func (h *Handler) Parameters() []*Parameter { return append([]*Parameter(nil), h.params...) }

// Properties returns the retained property map, or nil when the handler was
// built without RetainProperties.
func (h *Handler) Properties() *PropertyMap { return h.props }

// descend follows sub-command keys through the leading tokens of content,
// splitting each level with the current handler's pattern. It returns the
// deepest match and the text left after its key.
func (h *Handler) descend(content string) (*Handler, string) {
	target, rest := h, content
	for len(target.subs) > 0 {
		tokens := arguments.Tokenize(rest, target.split, 2)
		if len(tokens) == 0 {
			break
		}
		child := target.subs[strings.ToLower(tokens[0])]
		if child == nil {
			break
		}
		rest = arguments.Skip(rest, target.split, 1)
		target = child
	}
	return target, arguments.Skip(rest, target.split, 0)
}

// helpTarget returns the nearest "help" sub-command of h or an ancestor.
func (h *Handler) helpTarget() *Handler {
	for n := h; n != nil; n = n.parent {
		if help := n.subs["help"]; help != nil {
			return help
		}
	}
	return nil
}

func (h *Handler) isHelp() bool {
	for _, k := range h.keys {
		if strings.EqualFold(k, "help") {
			return true
		}
	}
	return false
}

// handle routes ev below h and runs the selected handler.
func (h *Handler) handle(ev *CommandEvent) bool {
	target, residual := h.descend(ev.Content())

	if ev.IsHelp() && !(target.isHelp() && target.IsExecutable()) {
		if help := target.helpTarget(); help != nil && help.IsExecutable() {
			return help.run(ev, residual)
		}
	}
	if target.IsExecutable() {
		return target.run(ev, residual)
	}
	if help := target.subs["help"]; help != nil && help.IsExecutable() {
		return help.run(ev, residual)
	}
	logger := ev.Logger()
	logger.Debug().Err(ErrNoSuchSubCommand).Str("command", target.Path()).Msg("no executable handler")
	return false
}

// run resolves the receiver and drives the preprocessor pipeline.
func (h *Handler) run(ev *CommandEvent, residual string) (ok bool) {
	ev.bind(h, residual)
	logger := ev.Logger().With().Str("command", h.Path()).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Err(&PanicError{Value: r}).Msg("command panicked")
			ok = false
		}
	}()

	var receiver reflect.Value
	if h.receiver != nil {
		v, err := h.receiver()
		if err != nil {
			logger.Error().Err(err).Msg("command receiver unavailable")
			return false
		}
		receiver = v
	}
	var recv any
	if receiver.IsValid() {
		recv = receiver.Interface()
	}

	stack := newProcessStack(recv, h, ev, h.preprocessors, func() bool {
		return h.execute(receiver, ev)
	})
	stack.Next()
	if !stack.Ran() {
		logger.Debug().Msg("command cancelled by preprocessor")
	}
	return stack.Result()
}

// execute parses arguments, calls the handler and delivers its result.
func (h *Handler) execute(receiver reflect.Value, ev *CommandEvent) bool {
	logger := ev.Logger()
	values, ok := newParser(ev, h, ev.Arguments()).Parse()
	if !ok {
		logger.Debug().Err(ErrParse).Str("command", h.Path()).Msg("argument binding failed")
		return false
	}
	if h.hasReceiver {
		values = append([]reflect.Value{receiver}, values...)
	}
	out := h.fn.Call(values)

	if h.returnsError {
		if errv := out[len(out)-1]; !errv.IsNil() {
			logger.Error().Err(errv.Interface().(error)).Str("command", h.Path()).Msg("command failed")
			return false
		}
	}
	if !h.returnsValue {
		return true
	}
	result := out[0].Interface()
	if isNil(result) {
		return true
	}
	if err := h.result(ev, h, result); err != nil {
		logger.Error().Err(err).Str("command", h.Path()).Msg("result delivery failed")
		return false
	}
	return true
}

func (h *Handler) String() string {
	return fmt.Sprintf("Handler{%s}", h.Path())
}

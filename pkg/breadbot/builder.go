package breadbot

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ClientBuilder collects commands, plugins and registries, then builds an
// immutable Client. It is not safe for concurrent use.
type ClientBuilder struct {
	modifiers     *Modifiers
	preprocessors *Preprocessors
	argTypes      *ArgumentTypes
	results       *ResultHandlers

	plugins   []Plugin
	commands  []*HandlerBuilder
	predicate func(*discordgo.Message) bool
	factory   EventFactory
	logger    *zerolog.Logger
	errs      []error
	built     bool
}

// NewClientBuilder returns a builder with the built-in modifiers, argument
// mappers and result handlers installed.
func NewClientBuilder() *ClientBuilder {
	b := &ClientBuilder{
		modifiers:     newModifiers(),
		preprocessors: newPreprocessors(),
		argTypes:      NewArgumentTypes(),
		results:       NewResultHandlers(),
		factory:       DefaultEventFactory{},
	}
	registerDefaultModifiers(b)
	return b
}

func (b *ClientBuilder) Modifiers() *Modifiers           { return b.modifiers }
func (b *ClientBuilder) Preprocessors() *Preprocessors   { return b.preprocessors }
func (b *ClientBuilder) ArgumentTypes() *ArgumentTypes   { return b.argTypes }
func (b *ClientBuilder) ResultHandlers() *ResultHandlers { return b.results }

// Plugins returns the installed plugins in installation order.
func (b *ClientBuilder) Plugins() []Plugin { return append([]Plugin(nil), b.plugins...) }

// AddPlugin installs p and runs its Initialize. Failures surface from Build.
func (b *ClientBuilder) AddPlugin(p Plugin) *ClientBuilder {
	b.plugins = append(b.plugins, p)
	if err := p.Initialize(b); err != nil {
		b.errs = append(b.errs, fmt.Errorf("plugin %T: %w", p, err))
	}
	return b
}

// Commands returns the top-level builders.
func (b *ClientBuilder) Commands() []*HandlerBuilder {
	return append([]*HandlerBuilder(nil), b.commands...)
}

// Command returns the top-level builder owning key, ignoring case.
func (b *ClientBuilder) Command(key string) *HandlerBuilder {
	for _, c := range b.commands {
		for _, k := range c.keys {
			if strings.EqualFold(k, key) {
				return c
			}
		}
	}
	return nil
}

func (b *ClientBuilder) add(hb *HandlerBuilder, err error, configure []func(*HandlerBuilder)) *HandlerBuilder {
	if err != nil {
		b.errs = append(b.errs, err)
		return newHandlerBuilder(b, nil)
	}
	for _, fn := range configure {
		fn(hb)
	}
	b.commands = append(b.commands, hb)
	return hb
}

// AddCommand registers a function handler. Its key defaults to the function
// name; closures need SetKeys in configure.
func (b *ClientBuilder) AddCommand(fn any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	hb, err := b.fromFunc(fn, nil)
	return b.add(hb, err, configure)
}

// AddObject registers a command struct instance used as the receiver on every
// dispatch.
func (b *ClientBuilder) AddObject(obj any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	hb, err := b.fromObject(obj)
	return b.add(hb, err, configure)
}

// AddType registers a command struct type. Each dispatch gets a fresh zero
// receiver unless the handler is persistent.
func (b *ClientBuilder) AddType(t reflect.Type, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	hb, err := b.fromType(t, nil)
	return b.add(hb, err, configure)
}

// AddSupplier registers a command struct produced by supplier. The supplier is
// called once to learn the type.
func (b *ClientBuilder) AddSupplier(supplier func() any, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	hb, err := b.fromSupplier(supplier)
	return b.add(hb, err, configure)
}

// AddPackage registers every command struct recorded with Register under
// pkgPath and its sub-packages.
func (b *ClientBuilder) AddPackage(pkgPath string) *ClientBuilder {
	types := Registered(pkgPath)
	if len(types) == 0 {
		b.errs = append(b.errs, &BreadBotError{Source: pkgPath, Err: ErrNotACommand})
		return b
	}
	for _, t := range types {
		b.AddType(t)
	}
	return b
}

// AddTypeOf registers the command struct T.
func AddTypeOf[T any](b *ClientBuilder, configure ...func(*HandlerBuilder)) *HandlerBuilder {
	return b.AddType(reflect.TypeFor[T](), configure...)
}

// SetPreProcessPredicate replaces the gate run before event creation.
func (b *ClientBuilder) SetPreProcessPredicate(fn func(*discordgo.Message) bool) *ClientBuilder {
	b.predicate = fn
	return b
}

// AddPreProcessPredicate chains fn after the current gate; both must accept.
func (b *ClientBuilder) AddPreProcessPredicate(fn func(*discordgo.Message) bool) *ClientBuilder {
	prev := b.predicate
	if prev == nil {
		b.predicate = fn
		return b
	}
	b.predicate = func(m *discordgo.Message) bool { return prev(m) && fn(m) }
	return b
}

func (b *ClientBuilder) SetEventFactory(f EventFactory) *ClientBuilder {
	b.factory = f
	return b
}

// SetLogger overrides the logger. The default is the zerolog global logger.
func (b *ClientBuilder) SetLogger(l zerolog.Logger) *ClientBuilder {
	b.logger = &l
	return b
}

// SetPreprocessorPriority sets the global preprocessor order by identifier.
func (b *ClientBuilder) SetPreprocessorPriority(ids ...string) *ClientBuilder {
	b.preprocessors.SetPriority(ids...)
	return b
}

// Walk calls fn for every builder in the command tree, parents first.
func (b *ClientBuilder) Walk(fn func(*HandlerBuilder)) {
	var walk func(*HandlerBuilder)
	walk = func(hb *HandlerBuilder) {
		fn(hb)
		for _, c := range hb.children {
			walk(c)
		}
	}
	for _, hb := range b.commands {
		walk(hb)
	}
}

// Build validates every command and returns the client. Plugins decorate
// the builder during Build, so a builder builds at most once.
func (b *ClientBuilder) Build() (*Client, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if !HasPlugin[PrefixPlugin](b.plugins) {
		b.AddPlugin(DefaultPrefix)
	}
	prefix, _ := FindPlugin[PrefixPlugin](b.plugins)
	for _, p := range b.plugins {
		if hook, ok := p.(BuildHook); ok {
			if err := hook.BeforeBuild(b); err != nil {
				return nil, fmt.Errorf("plugin %T: %w", p, err)
			}
		}
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	c := &Client{
		commands:  make(map[string]*Handler),
		plugins:   append([]Plugin(nil), b.plugins...),
		prefix:    prefix,
		factory:   b.factory,
		predicate: b.predicate,
		logger:    log.Logger,
	}
	if b.logger != nil {
		c.logger = *b.logger
	}
	for _, hb := range b.commands {
		h, err := hb.build(nil)
		if err != nil {
			return nil, err
		}
		for _, k := range h.keys {
			lk := strings.ToLower(k)
			if _, dup := c.commands[lk]; dup {
				return nil, fmt.Errorf("%s: %w", k, ErrDuplicateKey)
			}
			c.commands[lk] = h
		}
		c.handlers = append(c.handlers, h)
	}
	for _, p := range c.plugins {
		if l, ok := p.(MessageListener); ok {
			c.listeners = append(c.listeners, l)
		}
		if l, ok := p.(MessageDeleteListener); ok {
			c.deleteListeners = append(c.deleteListeners, l)
		}
	}
	c.logger.Info().Int("commands", len(c.handlers)).Int("plugins", len(c.plugins)).Msg("client built")
	return c, nil
}

// String renders the command tree.
func (b *ClientBuilder) String() string {
	var sb strings.Builder
	for _, hb := range b.commands {
		sb.WriteString(hb.String())
	}
	return sb.String()
}

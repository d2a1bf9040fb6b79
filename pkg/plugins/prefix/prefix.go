// Package prefix resolves command prefixes per guild.
package prefix

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
)

// MaxLength bounds a guild prefix.
const MaxLength = 8

// Store persists guild prefixes. Implementations must be safe for concurrent
// use.
type Store interface {
	GuildPrefix(guildID string) (string, bool)
	SetGuildPrefix(guildID, prefix string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func (s *Memory) GuildPrefix(guildID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[guildID]
	return p, ok
}

func (s *Memory) SetGuildPrefix(guildID, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]string)
	}
	if prefix == "" {
		delete(s.m, guildID)
		return nil
	}
	s.m[guildID] = prefix
	return nil
}

// Plugin answers Prefix from the store, falling back to a default. Direct
// messages always use the default. Unless disabled it registers a "prefix"
// command carrying admin.Admin, which the admin plugin enforces.
type Plugin struct {
	def     string
	store   Store
	command bool
}

type Option func(*Plugin)

// WithoutCommand skips registering the "prefix" command.
func WithoutCommand() Option {
	return func(p *Plugin) { p.command = false }
}

// New returns a plugin. A nil store keeps prefixes in memory.
func New(def string, store Store, opts ...Option) *Plugin {
	if def == "" {
		def = string(breadbot.DefaultPrefix)
	}
	if store == nil {
		store = &Memory{}
	}
	p := &Plugin{def: def, store: store, command: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	if !p.command {
		return nil
	}
	b.AddCommand(p.set, func(h *breadbot.HandlerBuilder) {
		h.SetKeys("prefix").
			SetGroup("settings").
			SetDescription("Show or change the command prefix of this server").
			PutProperty(admin.Admin{})
		h.Parameter(1).SetName("prefix")
	})
	return nil
}

// Default returns the fallback prefix.
func (p *Plugin) Default() string { return p.def }

func (p *Plugin) Prefix(guildID string) string {
	if guildID == "" {
		return p.def
	}
	if s, ok := p.store.GuildPrefix(guildID); ok && s != "" {
		return s
	}
	return p.def
}

// Set stores prefix for guildID. An empty prefix restores the default.
func (p *Plugin) Set(guildID, prefix string) error {
	if guildID == "" {
		return fmt.Errorf("prefix: direct messages use the default prefix")
	}
	if err := Validate(prefix); err != nil {
		return err
	}
	if prefix == p.def {
		prefix = ""
	}
	return p.store.SetGuildPrefix(guildID, prefix)
}

// Validate rejects prefixes that cannot start a message unambiguously.
func Validate(prefix string) error {
	if prefix == "" {
		return nil
	}
	if len(prefix) > MaxLength {
		return fmt.Errorf("prefix: longer than %d bytes", MaxLength)
	}
	if strings.IndexFunc(prefix, unicode.IsSpace) >= 0 {
		return fmt.Errorf("prefix: contains whitespace")
	}
	if strings.HasPrefix(prefix, "<@") {
		return fmt.Errorf("prefix: looks like a mention")
	}
	return nil
}

func (p *Plugin) set(ev *breadbot.CommandEvent, prefix *string) string {
	if prefix == nil {
		return fmt.Sprintf("The prefix here is `%s`.", p.Prefix(ev.GuildID()))
	}
	value := *prefix
	if strings.EqualFold(value, "reset") {
		value = ""
	}
	if err := p.Set(ev.GuildID(), value); err != nil {
		return fmt.Sprintf("Cannot use that prefix: %v.", strings.TrimPrefix(err.Error(), "prefix: "))
	}
	return fmt.Sprintf("The prefix is now `%s`.", p.Prefix(ev.GuildID()))
}

// Package help generates help commands from the built command tree.
package help

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
)

const embedColor = 0xb01e66

// Plugin adds a top-level "help" command and, unless disabled, a "help"
// sub-command to every command that does not declare its own.
type Plugin struct {
	title      string
	perCommand bool

	self       *breadbot.HandlerBuilder
	restricted map[string][]int64
}

type Option func(*Plugin)

func WithTitle(title string) Option {
	return func(p *Plugin) { p.title = title }
}

// WithoutCommandHelp skips generating per-command help sub-commands.
func WithoutCommandHelp() Option {
	return func(p *Plugin) { p.perCommand = false }
}

func New(opts ...Option) *Plugin {
	p := &Plugin{title: "Help", perCommand: true, restricted: make(map[string][]int64)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	p.self = b.AddCommand(p.list, func(h *breadbot.HandlerBuilder) {
		h.SetKeys("help", "commands").
			SetGroup("general").
			SetDescription("Get a list of available commands")
		h.Parameter(1).SetName("view")
	})
	return nil
}

// BeforeBuild records which commands need permissions and attaches the
// generated help sub-commands.
func (p *Plugin) BeforeBuild(b *breadbot.ClientBuilder) error {
	for _, hb := range b.Commands() {
		keys := hb.Keys()
		if len(keys) == 0 {
			continue
		}
		props := hb.Properties()
		switch {
		case breadbot.HasProperty[admin.Admin](props):
			p.restricted[strings.ToLower(keys[0])] = []int64{discordgo.PermissionAdministrator}
		case breadbot.HasProperty[admin.Permissions](props):
			perms, _ := breadbot.Property[admin.Permissions](props)
			p.restricted[strings.ToLower(keys[0])] = perms.Any
		}
	}
	if !p.perCommand {
		return nil
	}
	b.Walk(func(hb *breadbot.HandlerBuilder) {
		if hb == p.self || hb.Parent() == p.self {
			return
		}
		if hb.Parent() != nil && len(hb.SubCommands()) == 0 {
			return
		}
		if hb.SubCommand("help") != nil {
			return
		}
		hb.AddCommand(p.describe, func(h *breadbot.HandlerBuilder) {
			h.SetKeys("help").SetDescription("Show help for this command")
		})
	})
	return nil
}

func (p *Plugin) list(ev *breadbot.CommandEvent, view *string) *discordgo.MessageEmbed {
	c := ev.Client()
	var visible []*breadbot.Handler
	for _, h := range c.Commands() {
		if p.visible(ev, h) {
			visible = append(visible, h)
		}
	}
	slices.SortFunc(visible, func(a, b *breadbot.Handler) int { return strings.Compare(a.Key(), b.Key()) })

	var body string
	if view != nil && strings.EqualFold(*view, "flat") {
		body = flat(ev.Prefix(), visible)
	} else {
		body = byGroup(ev.Prefix(), visible)
	}
	return &discordgo.MessageEmbed{
		Title:       p.title,
		Description: body,
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Use %shelp <command> for details", ev.Prefix())},
	}
}

func (p *Plugin) visible(ev *breadbot.CommandEvent, h *breadbot.Handler) bool {
	required, ok := p.restricted[strings.ToLower(h.Key())]
	if !ok {
		return true
	}
	guard, found := breadbot.FindPlugin[*admin.Plugin](ev.Client().Plugins())
	if !found {
		return true
	}
	allowed, err := guard.Allowed(ev, required)
	return err == nil && allowed
}

func byGroup(prefix string, handlers []*breadbot.Handler) string {
	groups := make(map[string][]*breadbot.Handler)
	for _, h := range handlers {
		g := h.Group()
		if g == "" {
			g = "other"
		}
		groups[g] = append(groups[g], h)
	}
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, g := range names {
		fmt.Fprintf(&sb, "**%s**\n", g)
		for _, h := range groups[g] {
			line(&sb, prefix, h)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func flat(prefix string, handlers []*breadbot.Handler) string {
	var sb strings.Builder
	for _, h := range handlers {
		line(&sb, prefix, h)
	}
	return strings.TrimSpace(sb.String())
}

func line(sb *strings.Builder, prefix string, h *breadbot.Handler) {
	desc := h.Description()
	if desc == "" {
		desc = "No description"
	}
	fmt.Fprintf(sb, "`%s%s` - %s\n", prefix, h.Key(), desc)
}

func (p *Plugin) describe(ev *breadbot.CommandEvent) *discordgo.MessageEmbed {
	target := ev.Handler().Parent()
	return Describe(ev.Prefix(), target)
}

// Describe renders the help page of h.
func Describe(prefix string, h *breadbot.Handler) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       prefix + h.Path(),
		Description: h.Description(),
		Color:       embedColor,
	}
	if keys := h.Keys(); len(keys) > 1 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: "`" + strings.Join(keys[1:], "`, `") + "`"})
	}
	if h.IsExecutable() {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Usage", Value: "`" + Usage(prefix, h) + "`"})
	}
	var subs []string
	for _, s := range h.SubCommands() {
		if strings.EqualFold(s.Key(), "help") {
			continue
		}
		desc := s.Description()
		if desc == "" {
			desc = Usage(prefix, s)
		}
		subs = append(subs, fmt.Sprintf("`%s` - %s", s.Key(), desc))
	}
	if len(subs) > 0 {
		slices.Sort(subs)
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Sub-commands", Value: strings.Join(subs, "\n")})
	}
	return e
}

// Usage renders a one-line synopsis such as "!roll <dice int> [sides int]".
func Usage(prefix string, h *breadbot.Handler) string {
	parts := []string{prefix + h.Path()}
	for _, param := range h.Parameters() {
		if param.IsInjected() {
			continue
		}
		t := param.Type()
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if param.IsRequired() {
			parts = append(parts, fmt.Sprintf("<%s %s>", param.Name(), t))
		} else {
			parts = append(parts, fmt.Sprintf("[%s %s]", param.Name(), t))
		}
	}
	return strings.Join(parts, " ")
}

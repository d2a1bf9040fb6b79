// Package groups lets server admins switch whole command groups off.
package groups

import (
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/plugins/sourceguild"
)

const ID = "groups"

// Store keeps the disabled groups of each guild.
type Store interface {
	IsGroupDisabled(guildID, group string) (bool, error)
	DisableGroup(guildID, group string) error
	EnableGroup(guildID, group string) error
	DisabledGroups(guildID string) ([]string, error)
}

// Plugin guards every grouped command with a check against Store and adds an
// admin-only "groups" command to toggle groups.
type Plugin struct {
	store     Store
	protected []string
	known     []string
}

// New returns a plugin. Groups in protected can never be disabled; the
// plugin's own "settings" group always is.
func New(store Store, protected ...string) *Plugin {
	return &Plugin{store: store, protected: append([]string{"settings"}, protected...)}
}

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	b.AddObject(&ToggleCommand{plugin: p})
	return nil
}

// BeforeBuild attaches the disabled-group check to every command whose own
// or inherited group can be disabled.
func (p *Plugin) BeforeBuild(b *breadbot.ClientBuilder) error {
	b.Walk(func(hb *breadbot.HandlerBuilder) {
		group := groupOf(hb)
		if group == "" {
			return
		}
		if !slices.Contains(p.known, group) {
			p.known = append(p.known, group)
		}
		if p.isProtected(group) {
			return
		}
		hb.AddPreprocessorPredicate(ID, p.guard(group))
	})
	slices.Sort(p.known)
	return nil
}

func groupOf(hb *breadbot.HandlerBuilder) string {
	for n := hb; n != nil; n = n.Parent() {
		if g := n.Group(); g != "" {
			return g
		}
	}
	return ""
}

func (p *Plugin) isProtected(group string) bool {
	return slices.ContainsFunc(p.protected, func(g string) bool { return strings.EqualFold(g, group) })
}

func (p *Plugin) guard(group string) breadbot.PreprocessorPredicate {
	return func(_ any, h *breadbot.Handler, ev *breadbot.CommandEvent) bool {
		if ev.GuildID() == "" {
			return true
		}
		disabled, err := p.store.IsGroupDisabled(ev.GuildID(), group)
		if err != nil {
			ev.Logger().Warn().Err(err).Str("group", group).Msg("group check failed")
			return true
		}
		if disabled {
			_, _ = ev.Replyf("This command is disabled on this server.\nUse `%sgroups status` to check which commands are disabled.", ev.Prefix())
			return false
		}
		return true
	}
}

// Groups returns every group seen at build time.
func (p *Plugin) Groups() []string { return slices.Clone(p.known) }

// ToggleCommand enables and disables command groups.
type ToggleCommand struct {
	breadbot.Command `keys:"groups,group" group:"settings" desc:"Enable or disable a group of commands"`
	admin.Admin
	sourceguild.GuildOnly

	plugin *Plugin
}

func (c *ToggleCommand) Annotations() breadbot.Annotations {
	return breadbot.Annotations{
		"CmdEnable":    {breadbot.Description("Enable a command group")},
		"CmdEnable.1":  {breadbot.Name("group"), breadbot.Required{}},
		"CmdDisable":   {breadbot.Description("Disable a command group")},
		"CmdDisable.1": {breadbot.Name("group"), breadbot.Required{}},
		"CmdStatus":    {breadbot.Description("List command groups and their state")},
	}
}

func (c *ToggleCommand) CmdEnable(ev *breadbot.CommandEvent, group string) string {
	group, ok := c.resolve(group)
	if !ok {
		return fmt.Sprintf("Unknown group `%s`.", group)
	}
	if err := c.plugin.store.EnableGroup(ev.GuildID(), group); err != nil {
		return "Failed to enable the group."
	}
	return fmt.Sprintf("Command group `%s` enabled.", group)
}

func (c *ToggleCommand) CmdDisable(ev *breadbot.CommandEvent, group string) string {
	group, ok := c.resolve(group)
	if !ok {
		return fmt.Sprintf("Unknown group `%s`.", group)
	}
	if c.plugin.isProtected(group) {
		return fmt.Sprintf("You can't disable the `%s` group.", group)
	}
	if err := c.plugin.store.DisableGroup(ev.GuildID(), group); err != nil {
		return "Failed to disable the group."
	}
	return fmt.Sprintf("Command group `%s` disabled.", group)
}

func (c *ToggleCommand) CmdStatus(ev *breadbot.CommandEvent) (string, error) {
	disabled, err := c.plugin.store.DisabledGroups(ev.GuildID())
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, g := range c.plugin.known {
		state := "enabled"
		if slices.Contains(disabled, g) {
			state = "disabled"
		}
		fmt.Fprintf(&sb, "`%s` - %s\n", g, state)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *ToggleCommand) resolve(group string) (string, bool) {
	i := slices.IndexFunc(c.plugin.known, func(g string) bool { return strings.EqualFold(g, group) })
	if i < 0 {
		return group, false
	}
	return c.plugin.known[i], true
}

// Package sourceguild limits where commands may run.
package sourceguild

import (
	"reflect"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const (
	SourceGuildID = "sourceguild"
	GuildOnlyID   = "guildonly"
)

// SourceGuild limits a command to one guild. An empty ID means the plugin's
// default guild. As an embedded field it reads the tag guild:"<id>".
type SourceGuild struct {
	ID string
}

func (SourceGuild) FromTag(tag reflect.StructTag) any {
	return SourceGuild{ID: tag.Get("guild")}
}

// GuildOnly rejects direct messages.
type GuildOnly struct{}

// Plugin checks SourceGuild and GuildOnly properties. Rejected events are
// dropped without a reply.
type Plugin struct {
	guildID string
}

// New returns a plugin whose default source guild is guildID.
func New(guildID string) *Plugin {
	return &Plugin{guildID: guildID}
}

// GuildID returns the default source guild.
func (p *Plugin) GuildID() string { return p.guildID }

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	breadbot.AssociatePredicate(b, SourceGuildID, func(s SourceGuild) breadbot.PreprocessorPredicate {
		id := s.ID
		if id == "" {
			id = p.guildID
		}
		return func(_ any, h *breadbot.Handler, ev *breadbot.CommandEvent) bool {
			if id == "" || ev.GuildID() != id {
				ev.Logger().Debug().Str("command", h.Path()).Str("guild", ev.GuildID()).Msg("outside source guild")
				return false
			}
			return true
		}
	})
	breadbot.AssociatePredicate(b, GuildOnlyID, func(GuildOnly) breadbot.PreprocessorPredicate {
		return func(_ any, _ *breadbot.Handler, ev *breadbot.CommandEvent) bool {
			return ev.GuildID() != ""
		}
	})
	return nil
}

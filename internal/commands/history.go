package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/plugins/commandlog"
	"github.com/keshon/breadbot/pkg/plugins/sourceguild"
)

// HistorySource reads recorded commands of a guild, oldest first.
type HistorySource interface {
	CommandHistory(guildID string) ([]commandlog.Entry, error)
}

// HistoryCommand lists recent commands. It needs a store, so it is added
// with AddObject rather than registered.
type HistoryCommand struct {
	breadbot.Command `keys:"history,log" group:"settings" desc:"Show recently used commands"`
	admin.Admin
	sourceguild.GuildOnly
	commandlog.Skip

	Source HistorySource
}

func (c *HistoryCommand) Main(ev *breadbot.CommandEvent) (*discordgo.MessageEmbed, error) {
	entries, err := c.Source.CommandHistory(ev.GuildID())
	if err != nil {
		return nil, err
	}
	embed := &discordgo.MessageEmbed{Title: "Command history", Color: embedColor}
	if len(entries) == 0 {
		embed.Description = "No commands recorded yet."
		return embed, nil
	}
	var sb strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		status := "✅"
		if !e.Success {
			status = "❌"
		}
		fmt.Fprintf(&sb, "%s `%s%s` by **%s** <t:%d:R>\n", status, ev.Prefix(), strings.TrimSpace(e.Command+" "+e.Arguments), e.Username, e.Datetime.Unix())
	}
	embed.Description = strings.TrimSpace(sb.String())
	return embed, nil
}

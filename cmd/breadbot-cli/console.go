package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
)

// consoleSender prints what the bot would post to a channel.
type consoleSender struct {
	mu    sync.Mutex
	out   io.Writer
	n     int
	perms int64
}

var (
	_ breadbot.Sender        = (*consoleSender)(nil)
	_ admin.PermissionSource = (*consoleSender)(nil)
)

func newConsoleSender(out io.Writer, perms int64) *consoleSender {
	return &consoleSender{out: out, perms: perms}
}

func (c *consoleSender) post(channelID, content string, embeds ...*discordgo.MessageEmbed) *discordgo.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	id := fmt.Sprintf("c%d", c.n)
	if content != "" {
		fmt.Fprintf(c.out, "bot> %s\n", indent(content))
	}
	for _, e := range embeds {
		fmt.Fprint(c.out, renderEmbed(e))
	}
	return &discordgo.Message{ID: id, ChannelID: channelID, Content: content}
}

func (c *consoleSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.post(channelID, content), nil
}

func (c *consoleSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.post(channelID, "", embed), nil
}

func (c *consoleSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return c.post(channelID, data.Content, data.Embeds...), nil
}

func (c *consoleSender) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "bot (edit %s)> %s\n", messageID, indent(content))
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (c *consoleSender) MessageReactionAdd(_, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "bot reacted %s to %s\n", emojiID, messageID)
	return nil
}

func (c *consoleSender) UserChannelPermissions(string, string, ...discordgo.RequestOption) (int64, error) {
	return c.perms, nil
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n     ")
}

func renderEmbed(e *discordgo.MessageEmbed) string {
	var sb strings.Builder
	if e.Title != "" {
		fmt.Fprintf(&sb, "┃ %s\n", e.Title)
	}
	if e.Description != "" {
		for _, line := range strings.Split(e.Description, "\n") {
			fmt.Fprintf(&sb, "┃ %s\n", line)
		}
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "┃ %s: %s\n", f.Name, strings.ReplaceAll(f.Value, "\n", ", "))
	}
	if e.Footer != nil && e.Footer.Text != "" {
		fmt.Fprintf(&sb, "┃ -- %s\n", e.Footer.Text)
	}
	return sb.String()
}

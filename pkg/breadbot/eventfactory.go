package breadbot

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// EventFactory turns an inbound message into a command event, or returns nil
// when the message is not addressed to the bot.
type EventFactory interface {
	CreateEvent(ctx context.Context, sender Sender, msg *discordgo.Message, selfID, prefix string) *CommandEvent
}

var (
	mentionPrefix = regexp.MustCompile(`^<@!?(\d+)>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// DefaultEventFactory accepts a leading self-mention or the guild prefix and
// rewrites "help <key> <rest>" into a help event for <key>.
type DefaultEventFactory struct{}

func (DefaultEventFactory) CreateEvent(ctx context.Context, sender Sender, msg *discordgo.Message, selfID, prefix string) *CommandEvent {
	content := msg.Content
	if m := mentionPrefix.FindStringSubmatchIndex(content); m != nil && selfID != "" && content[m[2]:m[3]] == selfID {
		content = strings.TrimSpace(content[m[1]:])
	} else if prefix != "" && strings.HasPrefix(content, prefix) {
		content = strings.TrimSpace(content[len(prefix):])
	} else {
		return nil
	}
	if content == "" {
		return nil
	}

	key, rest := splitOnce(content)
	if strings.EqualFold(key, "help") {
		if rest == "" {
			return NewCommandEvent(ctx, sender, msg, prefix, "help", "", true)
		}
		key2, rest2 := splitOnce(rest)
		return NewCommandEvent(ctx, sender, msg, prefix, key2, rest2+" help", true)
	}
	return NewCommandEvent(ctx, sender, msg, prefix, key, rest, false)
}

func splitOnce(s string) (head, tail string) {
	parts := whitespace.Split(s, 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

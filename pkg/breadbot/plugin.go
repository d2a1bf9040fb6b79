package breadbot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Plugin extends a client while it is being built. Initialize runs exactly
// once, from AddPlugin; an error aborts Build.
type Plugin interface {
	Initialize(b *ClientBuilder) error
}

// PrefixPlugin supplies the command prefix for a guild. It is queried on every
// message and must be safe for concurrent use. It must not fail.
type PrefixPlugin interface {
	Plugin
	Prefix(guildID string) string
}

// BuildHook runs at the start of Build, after every command was added. Plugins
// use it to decorate the registered builders.
type BuildHook interface {
	BeforeBuild(b *ClientBuilder) error
}

// MessageListener sees every message before command detection. Returning true
// consumes the message.
type MessageListener interface {
	OnMessage(ctx context.Context, sender Sender, msg *discordgo.Message) bool
}

// MessageDeleteListener is told about deleted messages.
type MessageDeleteListener interface {
	OnMessageDelete(channelID, messageID string)
}

// Shutdowner releases plugin resources when the client closes.
type Shutdowner interface {
	Shutdown()
}

// StaticPrefix is a PrefixPlugin answering the same prefix for every guild.
type StaticPrefix string

// DefaultPrefix is used when no PrefixPlugin is installed.
const DefaultPrefix StaticPrefix = "!"

func (p StaticPrefix) Initialize(*ClientBuilder) error { return nil }
func (p StaticPrefix) Prefix(string) string           { return string(p) }

// FindPlugin returns the first plugin assignable to T.
func FindPlugin[T any](plugins []Plugin) (T, bool) {
	for _, p := range plugins {
		if t, ok := p.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// HasPlugin reports whether any plugin is assignable to T.
func HasPlugin[T any](plugins []Plugin) bool {
	_, ok := FindPlugin[T](plugins)
	return ok
}

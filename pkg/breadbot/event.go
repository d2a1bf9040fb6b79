package breadbot

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/breadbot/pkg/arguments"
)

// Sender is the slice of the chat-server client the core needs to answer a
// command. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// CommandEvent is one inbound message that passed prefix or mention detection.
// It lives for a single dispatch and is confined to the dispatching goroutine.
type CommandEvent struct {
	ctx     context.Context
	id      string
	client  *Client
	sender  Sender
	message *discordgo.Message
	prefix  string
	key     string
	content string
	help    bool

	handler  *Handler
	residual string
	args     *ArgumentList
}

// NewCommandEvent builds an event. Custom EventFactory implementations use it.
func NewCommandEvent(ctx context.Context, sender Sender, msg *discordgo.Message, prefix, key, content string, help bool) *CommandEvent {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CommandEvent{
		ctx:      ctx,
		id:       uuid.NewString(),
		sender:   sender,
		message:  msg,
		prefix:   prefix,
		key:      key,
		content:  content,
		help:     help,
		residual: content,
	}
}

// ID is a per-event correlation id used in logs.
func (e *CommandEvent) ID() string { return e.id }

// Context returns the dispatch context.
func (e *CommandEvent) Context() context.Context { return e.ctx }

// Client returns the dispatching client; nil until the event is handled.
func (e *CommandEvent) Client() *Client { return e.client }

// Sender returns the chat-server client used for replies.
func (e *CommandEvent) Sender() Sender { return e.sender }

// Message returns the inbound message.
func (e *CommandEvent) Message() *discordgo.Message { return e.message }

func (e *CommandEvent) GuildID() string   { return e.message.GuildID }
func (e *CommandEvent) ChannelID() string { return e.message.ChannelID }

// AuthorID returns the sender's user id, or "" for system messages.
func (e *CommandEvent) AuthorID() string {
	if e.message.Author == nil {
		return ""
	}
	return e.message.Author.ID
}

// Prefix returns the prefix the command was invoked with.
func (e *CommandEvent) Prefix() string { return e.prefix }

// Key returns the top-level command key.
func (e *CommandEvent) Key() string { return e.key }

// Content returns the argument text after the top-level key.
func (e *CommandEvent) Content() string { return e.content }

// Residual returns the argument text left for the current handler after
// sub-command keys were consumed.
func (e *CommandEvent) Residual() string { return e.residual }

// IsHelp reports whether the event came from a "help <command>" message.
func (e *CommandEvent) IsHelp() bool { return e.help }

// Handler returns the handler currently processing the event.
func (e *CommandEvent) Handler() *Handler { return e.handler }

// Arguments returns the tokens left for the current handler, split with its
// configured pattern. The list is built on first use.
func (e *CommandEvent) Arguments() *ArgumentList {
	if e.args == nil {
		var (
			split *regexp.Regexp
			limit int
		)
		if e.handler != nil {
			split, limit = e.handler.split, e.handler.splitLimit
		}
		e.args = newArgumentList(e, arguments.Tokenize(e.residual, split, limit))
	}
	return e.args
}

// bind points the event at h with the argument text left after descent.
func (e *CommandEvent) bind(h *Handler, residual string) {
	e.handler = h
	e.residual = residual
	e.args = nil
}

// Logger returns the client logger tagged with this event.
func (e *CommandEvent) Logger() zerolog.Logger {
	base := zerolog.Nop()
	if e.client != nil {
		base = e.client.logger
	}
	return base.With().Str("event", e.id).Str("key", e.key).Str("guild", e.message.GuildID).Logger()
}

// Reply sends content to the event's channel.
func (e *CommandEvent) Reply(content string) (*discordgo.Message, error) {
	return e.sender.ChannelMessageSend(e.message.ChannelID, content)
}

// Replyf formats and sends a reply.
func (e *CommandEvent) Replyf(format string, args ...any) (*discordgo.Message, error) {
	return e.Reply(fmt.Sprintf(format, args...))
}

// ReplyEmbed sends an embed to the event's channel.
func (e *CommandEvent) ReplyEmbed(embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return e.sender.ChannelMessageSendEmbed(e.message.ChannelID, embed)
}

// ReplyComplex sends a composite message to the event's channel.
func (e *CommandEvent) ReplyComplex(data *discordgo.MessageSend) (*discordgo.Message, error) {
	return e.sender.ChannelMessageSendComplex(e.message.ChannelID, data)
}

// React adds a reaction to the inbound message.
func (e *CommandEvent) React(emoji string) error {
	return e.sender.MessageReactionAdd(e.message.ChannelID, e.message.ID, emoji)
}

func (e *CommandEvent) String() string {
	return fmt.Sprintf("CommandEvent{prefix=%q key=%q content=%q help=%t}", e.prefix, e.key, e.content, e.help)
}

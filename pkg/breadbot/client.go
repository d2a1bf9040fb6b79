package breadbot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Client dispatches inbound messages to built handlers. It is immutable and
// safe for concurrent use; plugins guard their own state.
type Client struct {
	logger          zerolog.Logger
	commands        map[string]*Handler
	handlers        []*Handler
	plugins         []Plugin
	prefix          PrefixPlugin
	factory         EventFactory
	predicate       func(*discordgo.Message) bool
	listeners       []MessageListener
	deleteListeners []MessageDeleteListener
}

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger { return c.logger }

// Plugins returns the installed plugins in installation order.
func (c *Client) Plugins() []Plugin { return append([]Plugin(nil), c.plugins...) }

// Commands returns the top-level handlers in registration order.
func (c *Client) Commands() []*Handler { return append([]*Handler(nil), c.handlers...) }

// Command returns the top-level handler for key, ignoring case.
func (c *Client) Command(key string) *Handler { return c.commands[strings.ToLower(key)] }

// Prefix returns the command prefix for guildID.
func (c *Client) Prefix(guildID string) string { return c.prefix.Prefix(guildID) }

// Find walks a space separated command path such as "math add".
func (c *Client) Find(path string) *Handler {
	fields := strings.Fields(path)
	if len(fields) == 0 {
		return nil
	}
	h := c.Command(fields[0])
	for _, f := range fields[1:] {
		if h == nil {
			return nil
		}
		h = h.SubCommand(f)
	}
	return h
}

// Dispatch runs the command in msg, if any. selfID is the bot's user id and
// enables mention invocation. It reports whether a handler completed.
func (c *Client) Dispatch(ctx context.Context, sender Sender, selfID string, msg *discordgo.Message) bool {
	if msg == nil || msg.Author == nil || (selfID != "" && msg.Author.ID == selfID) {
		return false
	}
	for _, l := range c.listeners {
		if c.listen(ctx, l, sender, msg) {
			return false
		}
	}
	if c.predicate != nil && !c.predicate(msg) {
		return false
	}
	ev := c.factory.CreateEvent(ctx, sender, msg, selfID, c.prefix.Prefix(msg.GuildID))
	if ev == nil {
		return false
	}
	return c.HandleEvent(ev)
}

func (c *Client) listen(ctx context.Context, l MessageListener, sender Sender, msg *discordgo.Message) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Err(&PanicError{Value: r}).Msgf("listener %T panicked", l)
			consumed = false
		}
	}()
	return l.OnMessage(ctx, sender, msg)
}

// HandleEvent routes an already created event.
func (c *Client) HandleEvent(ev *CommandEvent) bool {
	ev.client = c
	root := c.Command(ev.Key())
	if root == nil {
		return false
	}
	return root.handle(ev)
}

// OnMessageCreate is a discordgo handler for guild and direct messages.
func (c *Client) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	c.Dispatch(context.Background(), s, selfID, m.Message)
}

// OnMessageDelete is a discordgo handler forwarding deletions to plugins.
func (c *Client) OnMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	if m.Message == nil {
		return
	}
	for _, l := range c.deleteListeners {
		l.OnMessageDelete(m.ChannelID, m.ID)
	}
}

// Close shuts down plugins that hold resources.
func (c *Client) Close() {
	for _, p := range c.plugins {
		if s, ok := p.(Shutdowner); ok {
			s.Shutdown()
		}
	}
}

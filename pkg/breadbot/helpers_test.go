package breadbot_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const botID = "42"

// recorder is a Sender that keeps everything it is asked to send.
type recorder struct {
	mu        sync.Mutex
	sent      []string
	embeds    []*discordgo.MessageEmbed
	complex   []*discordgo.MessageSend
	edits     []string
	reactions []string
}

func (r *recorder) next(channelID, content string) *discordgo.Message {
	return &discordgo.Message{ID: fmt.Sprintf("out-%d", len(r.sent)+len(r.embeds)+len(r.complex)), ChannelID: channelID, Content: content}
}

func (r *recorder) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.next(channelID, content)
	r.sent = append(r.sent, content)
	return m, nil
}

func (r *recorder) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.next(channelID, "")
	r.embeds = append(r.embeds, embed)
	return m, nil
}

func (r *recorder) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.next(channelID, data.Content)
	r.complex = append(r.complex, data)
	return m, nil
}

func (r *recorder) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, content)
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (r *recorder) MessageReactionAdd(_, _, emojiID string, _ ...discordgo.RequestOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions, emojiID)
	return nil
}

func (r *recorder) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func message(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "in-1",
		ChannelID: "chan",
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: "7", Username: "tester"},
	}
}

func build(t *testing.T, setup func(b *breadbot.ClientBuilder)) *breadbot.Client {
	t.Helper()
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	setup(b)
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

// send dispatches content and returns the replies it produced.
func send(c *breadbot.Client, content string) []string {
	r := &recorder{}
	c.Dispatch(context.Background(), r, botID, message(content))
	return r.Sent()
}

func show(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case *string:
			if v == nil {
				parts[i] = "null"
			} else {
				parts[i] = *v
			}
		case *int:
			if v == nil {
				parts[i] = "null"
			} else {
				parts[i] = fmt.Sprint(*v)
			}
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, ", ")
}

func ssi(a, b *string, i *int) string         { return show(a, b, i) }
func sis(a *string, i *int, b *string) string { return show(a, i, b) }
func iss(i *int, a, b *string) string         { return show(i, a, b) }

func withWidth(width int) func(*breadbot.HandlerBuilder) {
	return func(h *breadbot.HandlerBuilder) {
		for _, p := range h.Parameters() {
			p.SetWidth(width)
		}
	}
}

func ssiClient(t *testing.T, configure ...func(*breadbot.HandlerBuilder)) *breadbot.Client {
	return build(t, func(b *breadbot.ClientBuilder) {
		b.AddCommand(ssi, configure...)
		b.AddCommand(sis, configure...)
		b.AddCommand(iss, configure...)
	})
}

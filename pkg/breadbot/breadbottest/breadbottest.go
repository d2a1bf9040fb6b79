// Package breadbottest provides an in-memory Sender and message helpers for
// testing commands and plugins without a gateway connection.
package breadbottest

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
)

// BotID is the self id Dispatch is called with.
const BotID = "42"

// Recorder is a Sender that keeps everything it is asked to send.
type Recorder struct {
	mu        sync.Mutex
	n         int
	sent      []string
	embeds    []*discordgo.MessageEmbed
	edits     map[string]string
	reactions []string

	// Permissions answers UserChannelPermissions when set.
	Permissions map[string]int64
}

var _ breadbot.Sender = (*Recorder)(nil)

func (r *Recorder) next(channelID, content string) *discordgo.Message {
	r.n++
	return &discordgo.Message{ID: fmt.Sprintf("m%d", r.n), ChannelID: channelID, Content: content}
}

func (r *Recorder) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, content)
	return r.next(channelID, content), nil
}

func (r *Recorder) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeds = append(r.embeds, embed)
	return r.next(channelID, ""), nil
}

func (r *Recorder) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if data.Content != "" {
		r.sent = append(r.sent, data.Content)
	}
	r.embeds = append(r.embeds, data.Embeds...)
	return r.next(channelID, data.Content), nil
}

func (r *Recorder) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.edits == nil {
		r.edits = make(map[string]string)
	}
	r.edits[messageID] = content
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (r *Recorder) MessageReactionAdd(_, _, emojiID string, _ ...discordgo.RequestOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions = append(r.reactions, emojiID)
	return nil
}

// UserChannelPermissions reports Permissions[userID], or zero.
func (r *Recorder) UserChannelPermissions(userID, _ string, _ ...discordgo.RequestOption) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Permissions[userID], nil
}

// Sent returns the plain text messages sent so far.
func (r *Recorder) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

// Embeds returns the embeds sent so far.
func (r *Recorder) Embeds() []*discordgo.MessageEmbed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*discordgo.MessageEmbed(nil), r.embeds...)
}

// Edit returns the latest edit of messageID.
func (r *Recorder) Edit(messageID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.edits[messageID]
	return s, ok
}

// Reactions returns the emoji added so far.
func (r *Recorder) Reactions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reactions...)
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent, r.embeds, r.edits, r.reactions = nil, nil, nil, nil
}

// Message returns a guild message from user "7" in channel "chan".
func Message(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "in-1",
		ChannelID: "chan",
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: "7", Username: "tester"},
	}
}

// From rewrites the author of m.
func From(m *discordgo.Message, userID string) *discordgo.Message {
	m.Author = &discordgo.User{ID: userID, Username: "user" + userID}
	return m
}

// InGuild rewrites the guild of m; an empty id makes it a direct message.
func InGuild(m *discordgo.Message, guildID string) *discordgo.Message {
	m.GuildID = guildID
	return m
}

// Send dispatches msg through c with a fresh Recorder and returns what was
// sent in reply.
func Send(c *breadbot.Client, msg *discordgo.Message) []string {
	r := &Recorder{}
	c.Dispatch(context.Background(), r, BotID, msg)
	return r.Sent()
}

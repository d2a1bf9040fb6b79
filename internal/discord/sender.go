package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/retrylimit"
)

// API is the part of the REST client the bot talks to.
type API interface {
	breadbot.Sender
	admin.PermissionSource
}

var _ API = (*discordgo.Session)(nil)

// RetrySender retries failed REST calls behind an adaptive rate limit.
type RetrySender struct {
	api    API
	lim    *retrylimit.AdaptiveLimiter
	policy retrylimit.Policy
}

var _ API = (*RetrySender)(nil)

func NewRetrySender(api API, logger zerolog.Logger) *RetrySender {
	policy := retrylimit.DefaultPolicy()
	policy.Status = restStatus
	policy.Logger = logger
	return &RetrySender{
		api:    api,
		lim:    retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		policy: policy,
	}
}

func restStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func (r *RetrySender) do(fn func() error) error {
	return retrylimit.Do(context.Background(), r.lim, r.policy, fn)
}

func (r *RetrySender) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (m *discordgo.Message, err error) {
	err = r.do(func() error {
		m, err = r.api.ChannelMessageSend(channelID, content, options...)
		return err
	})
	return m, err
}

func (r *RetrySender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (m *discordgo.Message, err error) {
	err = r.do(func() error {
		m, err = r.api.ChannelMessageSendEmbed(channelID, embed, options...)
		return err
	})
	return m, err
}

func (r *RetrySender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (m *discordgo.Message, err error) {
	err = r.do(func() error {
		m, err = r.api.ChannelMessageSendComplex(channelID, data, options...)
		return err
	})
	return m, err
}

func (r *RetrySender) ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (m *discordgo.Message, err error) {
	err = r.do(func() error {
		m, err = r.api.ChannelMessageEdit(channelID, messageID, content, options...)
		return err
	})
	return m, err
}

func (r *RetrySender) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	return r.do(func() error {
		return r.api.MessageReactionAdd(channelID, messageID, emojiID, options...)
	})
}

// UserChannelPermissions is not retried; a failed lookup denies the command.
func (r *RetrySender) UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error) {
	return r.api.UserChannelPermissions(userID, channelID, fetchOptions...)
}

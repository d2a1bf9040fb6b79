package discord

import (
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
)

type flaky struct {
	*breadbottest.Recorder
	failures []int
}

func (f *flaky) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if len(f.failures) > 0 {
		code := f.failures[0]
		f.failures = f.failures[1:]
		return nil, &discordgo.RESTError{Response: &http.Response{StatusCode: code}}
	}
	return f.Recorder.ChannelMessageSend(channelID, content, options...)
}

func fastSender(api API) *RetrySender {
	s := NewRetrySender(api, zerolog.Nop())
	s.policy.Delay = 0
	s.policy.ThrottleDelay = 0
	s.policy.Jitter = false
	return s
}

func TestRetrySenderRetriesServerErrors(t *testing.T) {
	api := &flaky{Recorder: &breadbottest.Recorder{}, failures: []int{http.StatusBadGateway, http.StatusTooManyRequests}}
	s := fastSender(api)

	m, err := s.ChannelMessageSend("chan", "hello")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []string{"hello"}, api.Sent())
}

func TestRetrySenderStopsOnClientErrors(t *testing.T) {
	api := &flaky{Recorder: &breadbottest.Recorder{}, failures: []int{http.StatusForbidden}}
	s := fastSender(api)

	_, err := s.ChannelMessageSend("chan", "hello")
	var rest *discordgo.RESTError
	require.ErrorAs(t, err, &rest)
	assert.Equal(t, http.StatusForbidden, rest.Response.StatusCode)
	assert.Empty(t, api.Sent())
}

func TestRetrySenderForwardsPermissions(t *testing.T) {
	rec := &breadbottest.Recorder{Permissions: map[string]int64{"7": discordgo.PermissionAdministrator}}
	s := fastSender(rec)
	perms, err := s.UserChannelPermissions("7", "chan")
	require.NoError(t, err)
	assert.Equal(t, int64(discordgo.PermissionAdministrator), perms)
}

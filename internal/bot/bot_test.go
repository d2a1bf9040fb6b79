package bot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/internal/config"
	"github.com/keshon/breadbot/internal/storage"
	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
)

func setup(t *testing.T) (*breadbot.Client, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c, err := Build(config.Default(), store, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, store
}

func adminRecorder() *breadbottest.Recorder {
	return &breadbottest.Recorder{Permissions: map[string]int64{"7": discordgo.PermissionAdministrator}}
}

func dispatch(c *breadbot.Client, r *breadbottest.Recorder, content string) {
	c.Dispatch(context.Background(), r, breadbottest.BotID, breadbottest.Message(content))
}

func TestPingIsLogged(t *testing.T) {
	c, store := setup(t)
	assert.Equal(t, []string{"🏓 Pong!"}, breadbottest.Send(c, breadbottest.Message("!ping")))

	history, err := store.CommandHistory("guild")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ping", history[0].Command)
	assert.True(t, history[0].Success)
}

func TestGuildPrefixIsStored(t *testing.T) {
	c, store := setup(t)
	r := adminRecorder()
	dispatch(c, r, "!prefix ?")
	assert.Equal(t, []string{"The prefix is now `?`."}, r.Sent())

	p, ok := store.GuildPrefix("guild")
	assert.True(t, ok)
	assert.Equal(t, "?", p)
	assert.Equal(t, []string{"🏓 Pong!"}, breadbottest.Send(c, breadbottest.Message("?ping")))
	assert.Empty(t, breadbottest.Send(c, breadbottest.Message("!ping")))
}

func TestDisabledGroup(t *testing.T) {
	c, _ := setup(t)
	r := adminRecorder()
	dispatch(c, r, "!groups disable fun")
	dispatch(c, r, "!groups disable general")
	assert.Equal(t, []string{
		"Command group `fun` disabled.",
		"You can't disable the `general` group.",
	}, r.Sent())

	assert.Equal(t, []string{
		"This command is disabled on this server.\nUse `!groups status` to check which commands are disabled.",
	}, breadbottest.Send(c, breadbottest.Message("!random 5")))
	assert.Equal(t, []string{"🏓 Pong!"}, breadbottest.Send(c, breadbottest.Message("!ping")))
}

func TestCooldown(t *testing.T) {
	c, _ := setup(t)
	r := &breadbottest.Recorder{}
	dispatch(c, r, "!guess")
	dispatch(c, r, "!guess")
	sent := r.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Slow down, try again in 30s.", sent[1])
}

func TestHelpListsCommands(t *testing.T) {
	c, _ := setup(t)
	r := &breadbottest.Recorder{}
	dispatch(c, r, "!help")
	require.Len(t, r.Embeds(), 1)
	embed := r.Embeds()[0]
	assert.Equal(t, "Help", embed.Title)
	assert.Contains(t, embed.Description, "`!ping`")
	assert.Contains(t, embed.Description, "`!roll`")
	// admin-only commands stay hidden from regular members
	assert.NotContains(t, embed.Description, "`!history`")
}

package groups_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/plugins/groups"
)

type memory struct {
	mu       sync.Mutex
	disabled map[string][]string
}

func (m *memory) IsGroupDisabled(guildID, group string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.disabled[guildID], group), nil
}

func (m *memory) DisableGroup(guildID, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled == nil {
		m.disabled = make(map[string][]string)
	}
	if !slices.Contains(m.disabled[guildID], group) {
		m.disabled[guildID] = append(m.disabled[guildID], group)
	}
	return nil
}

func (m *memory) EnableGroup(guildID, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled[guildID] = slices.DeleteFunc(m.disabled[guildID], func(g string) bool { return g == group })
	return nil
}

func (m *memory) DisabledGroups(guildID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.disabled[guildID]), nil
}

type GameCommand struct {
	breadbot.Command `keys:"game" group:"fun"`
}

func (c *GameCommand) CmdStart() string { return "started" }

func TestToggleGroups(t *testing.T) {
	store := &memory{}
	p := groups.New(store, "core")
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(admin.New())
	b.AddPlugin(p)
	breadbot.AddTypeOf[GameCommand](b)
	b.AddCommand(func() string { return "pong" }, func(h *breadbot.HandlerBuilder) { h.SetKeys("ping").SetGroup("core") })
	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "fun", "settings"}, p.Groups())

	r := &breadbottest.Recorder{Permissions: map[string]int64{"7": discordgo.PermissionAdministrator}}
	run := func(content string) []string {
		r.Reset()
		c.Dispatch(context.Background(), r, breadbottest.BotID, breadbottest.Message(content))
		return r.Sent()
	}

	assert.Equal(t, []string{"started"}, run("!game start"))
	assert.Equal(t, []string{"Command group `fun` disabled."}, run("!groups disable FUN"))
	assert.Equal(t, []string{"This command is disabled on this server.\nUse `!groups status` to check which commands are disabled."}, run("!game start"))
	assert.Equal(t, []string{"`core` - enabled\n`fun` - disabled\n`settings` - enabled"}, run("!group status"))

	assert.Equal(t, []string{"You can't disable the `core` group."}, run("!groups disable core"))
	assert.Equal(t, []string{"You can't disable the `settings` group."}, run("!groups disable settings"))
	assert.Equal(t, []string{"Unknown group `music`."}, run("!groups disable music"))
	assert.Equal(t, []string{"pong"}, run("!ping"))

	assert.Equal(t, []string{"Command group `fun` enabled."}, run("!groups enable fun"))
	assert.Equal(t, []string{"started"}, run("!game start"))

	direct := breadbottest.InGuild(breadbottest.Message("!game start"), "")
	assert.Equal(t, []string{"started"}, breadbottest.Send(c, direct))
}

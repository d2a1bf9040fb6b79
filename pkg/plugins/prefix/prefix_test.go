package prefix_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/plugins/prefix"
)

func TestPrefixFallsBackToDefault(t *testing.T) {
	store := &prefix.Memory{}
	p := prefix.New("", store)
	assert.Equal(t, "!", p.Default())
	assert.Equal(t, "!", p.Prefix("g1"))

	require.NoError(t, p.Set("g1", "$"))
	assert.Equal(t, "$", p.Prefix("g1"))
	assert.Equal(t, "!", p.Prefix("g2"))
	assert.Equal(t, "!", p.Prefix(""))

	require.NoError(t, p.Set("g1", "!"))
	_, ok := store.GuildPrefix("g1")
	assert.False(t, ok)

	assert.Error(t, p.Set("", "?"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		prefix string
		ok     bool
	}{
		{"", true},
		{"?", true},
		{"bb.", true},
		{"way-too-long", false},
		{"a b", false},
		{"<@1>", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if tt.ok {
				assert.NoError(t, prefix.Validate(tt.prefix))
			} else {
				assert.Error(t, prefix.Validate(tt.prefix))
			}
		})
	}
}

func TestPrefixCommand(t *testing.T) {
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(admin.New())
	b.AddPlugin(prefix.New("!", nil))
	b.AddCommand(func() string { return "pong" }, func(h *breadbot.HandlerBuilder) { h.SetKeys("ping") })
	c, err := b.Build()
	require.NoError(t, err)

	r := &breadbottest.Recorder{Permissions: map[string]int64{"7": discordgo.PermissionAdministrator}}
	run := func(content string) []string {
		r.Reset()
		c.Dispatch(context.Background(), r, breadbottest.BotID, breadbottest.Message(content))
		return r.Sent()
	}

	assert.Equal(t, []string{"The prefix here is `!`."}, run("!prefix"))
	assert.Equal(t, []string{"The prefix is now `?`."}, run("!prefix ?"))
	assert.Empty(t, run("!ping"))
	assert.Equal(t, []string{"pong"}, run("?ping"))
	assert.Equal(t, []string{"Cannot use that prefix: contains whitespace."}, run(`?prefix`+"  "))
	assert.Equal(t, []string{"The prefix is now `!`."}, run("?prefix reset"))
	assert.Equal(t, []string{"pong"}, run("!ping"))

	direct := breadbottest.InGuild(breadbottest.Message("!ping"), "")
	assert.Equal(t, []string{"pong"}, breadbottest.Send(c, direct))
}

func TestPrefixCommandNeedsAdmin(t *testing.T) {
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(admin.New())
	p := prefix.New("!", nil)
	b.AddPlugin(p)
	c, err := b.Build()
	require.NoError(t, err)

	out := breadbottest.Send(c, breadbottest.Message("!prefix $"))
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "Administrator")
	assert.Equal(t, "!", p.Prefix("guild"))
}

func TestWithoutCommand(t *testing.T) {
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(prefix.New("!", nil, prefix.WithoutCommand()))
	c, err := b.Build()
	require.NoError(t, err)
	assert.Nil(t, c.Command("prefix"))
}

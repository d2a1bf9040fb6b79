package response

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
)

type fakeSender struct {
	mu    sync.Mutex
	n     int
	edits map[string]string
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.n), ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, _ *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.ChannelMessageSend(channelID, "")
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.ChannelMessageSend(channelID, data.Content)
}

func (f *fakeSender) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.edits == nil {
		f.edits = make(map[string]string)
	}
	f.edits[messageID] = content
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) MessageReactionAdd(string, string, string, ...discordgo.RequestOption) error {
	return nil
}

func event(s breadbot.Sender, channelID string) *breadbot.CommandEvent {
	msg := &discordgo.Message{ID: "in", ChannelID: channelID, Author: &discordgo.User{ID: "7"}}
	return breadbot.NewCommandEvent(context.Background(), s, msg, "!", "live", "", false)
}

func newTestManager() *Manager {
	return NewManager(WithPruneInterval(0), WithLogger(zerolog.Nop()))
}

func TestLiveResultIsTracked(t *testing.T) {
	m := newTestManager()
	var live *Live
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop()).AddPlugin(m)
	b.AddCommand(func() *Live {
		live = NewLive("0s")
		return live
	}, func(h *breadbot.HandlerBuilder) { h.SetKeys("timer") })
	c, err := b.Build()
	require.NoError(t, err)
	defer c.Close()

	s := &fakeSender{}
	msg := &discordgo.Message{ID: "in", ChannelID: "chan", GuildID: "g", Content: "!timer", Author: &discordgo.User{ID: "7"}}
	require.True(t, c.Dispatch(context.Background(), s, "42", msg))

	got, ok := m.Get("m1")
	require.True(t, ok)
	assert.Same(t, live, got)

	require.NoError(t, live.Update("1s"))
	assert.Equal(t, "1s", s.edits["m1"])

	c.OnMessageDelete(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "m1", ChannelID: "chan"}})
	assert.True(t, live.Cancelled())
	assert.ErrorIs(t, live.Update("2s"), ErrCancelled)
	_, ok = m.Get("m1")
	assert.False(t, ok)
}

func TestExclusiveCancelsPrevious(t *testing.T) {
	m := newTestManager()
	s := &fakeSender{}

	first := NewLive("a").Exclusive("menu")
	require.NoError(t, m.Send(event(s, "c1"), first))
	other := NewLive("b").Exclusive("menu")
	require.NoError(t, m.Send(event(s, "c2"), other))
	assert.False(t, first.Cancelled(), "different channel")

	second := NewLive("c").Exclusive("menu")
	require.NoError(t, m.Send(event(s, "c1"), second))
	assert.True(t, first.Cancelled())
	assert.False(t, second.Cancelled())

	select {
	case <-first.Done():
	default:
		t.Fatal("done channel still open")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	calls := 0
	l := NewLive("x").OnCancel(func() { calls++ })
	l.Cancel()
	l.Cancel()
	assert.Equal(t, 1, calls)
}

//go:noinline
func trackUnreferenced(m *Manager, s breadbot.Sender) {
	l := NewLive("gone")
	if err := m.Send(event(s, "c"), l); err != nil {
		panic(err)
	}
}

func TestPruneDropsCollectedResponses(t *testing.T) {
	m := newTestManager()
	s := &fakeSender{}
	kept := NewLive("kept")
	require.NoError(t, m.Send(event(s, "c"), kept))
	for i := 0; i < 10; i++ {
		trackUnreferenced(m, s)
	}
	cancelled := NewLive("cancelled")
	require.NoError(t, m.Send(event(s, "c"), cancelled))
	cancelled.Cancel()

	runtime.GC()
	runtime.GC()

	assert.Equal(t, 11, m.Prune())
	assert.Equal(t, 1, m.Len())
	got, ok := m.Get(kept.MessageID())
	require.True(t, ok)
	assert.Same(t, kept, got)
	runtime.KeepAlive(kept)
}

func TestShutdownCancelsEverything(t *testing.T) {
	m := NewManager(WithLogger(zerolog.Nop()))
	require.NoError(t, m.Initialize(breadbot.NewClientBuilder()))
	s := &fakeSender{}
	a, b := NewLive("a"), NewLive("b")
	require.NoError(t, m.Send(event(s, "c"), a))
	require.NoError(t, m.Send(event(s, "c"), b))

	m.Shutdown()
	m.Shutdown()
	assert.True(t, a.Cancelled())
	assert.True(t, b.Cancelled())
	assert.Zero(t, m.Len())
}

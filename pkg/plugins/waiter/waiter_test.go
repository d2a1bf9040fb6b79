package waiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
	"github.com/keshon/breadbot/pkg/plugins/waiter"
)

func msg(user, content string) *discordgo.Message {
	return breadbottest.From(breadbottest.Message(content), user)
}

func TestNextReturnsFirstMatch(t *testing.T) {
	w := waiter.New()
	got := make(chan *discordgo.Message, 1)
	go func() {
		m, err := w.Next(context.Background(), waiter.FromUser("chan", "7"))
		assert.NoError(t, err)
		got <- m
	}()
	require.Eventually(t, func() bool { return w.Len() == 1 }, time.Second, time.Millisecond)

	assert.False(t, w.OnMessage(context.Background(), nil, msg("8", "not you")))
	assert.False(t, w.OnMessage(context.Background(), nil, msg("7", "yes")))

	select {
	case m := <-got:
		assert.Equal(t, "yes", m.Content)
	case <-time.After(time.Second):
		t.Fatal("waiter did not complete")
	}
	assert.Equal(t, 0, w.Len())
}

func TestNextCancelledByContext(t *testing.T) {
	w := waiter.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Next(ctx, waiter.FromUser("chan", "7"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.Len())
}

func TestActionRunsUntilStopped(t *testing.T) {
	w := waiter.New()
	var seen []string
	a := w.On(waiter.FromUser("chan", "7")).
		Do(func(m *discordgo.Message) { seen = append(seen, m.Content) }).
		Until(func(m *discordgo.Message, _ int) bool { return m.Content == "done" }).
		Start()

	for _, s := range []string{"a", "b", "done", "after"} {
		w.OnMessage(context.Background(), nil, msg("7", s))
	}
	last, err := a.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", last.Content)
	assert.Equal(t, []string{"a", "b", "done"}, seen)
	assert.Equal(t, 3, a.Runs())
	assert.False(t, a.Cancel())
}

func TestCancelIsIdempotent(t *testing.T) {
	w := waiter.New()
	a := w.On(waiter.FromUser("chan", "7")).Times(2).Start()
	w.OnMessage(context.Background(), nil, msg("7", "one"))

	assert.True(t, a.Cancel())
	assert.False(t, a.Cancel())
	assert.Equal(t, 0, w.Len())

	last, err := a.Wait(context.Background())
	assert.ErrorIs(t, err, waiter.ErrCancelled)
	assert.Equal(t, "one", last.Content)

	w.OnMessage(context.Background(), nil, msg("7", "two"))
	assert.Equal(t, 1, a.Runs())
}

func TestTimeout(t *testing.T) {
	w := waiter.New()
	a := w.On(waiter.FromUser("chan", "7")).Timeout(10 * time.Millisecond).Start()
	_, err := a.Wait(context.Background())
	assert.ErrorIs(t, err, waiter.ErrTimeout)
	assert.Equal(t, 0, w.Len())
}

func TestShutdownCancelsPending(t *testing.T) {
	w := waiter.New()
	a := w.On(waiter.FromUser("chan", "7")).Start()
	b := w.On(waiter.FromUser("chan", "8")).Start()
	w.Shutdown()
	for _, act := range []*waiter.Action{a, b} {
		_, err := act.Wait(context.Background())
		assert.ErrorIs(t, err, waiter.ErrCancelled)
	}
}

// GuessCommand asks for a number and waits for the author's answer.
type GuessCommand struct {
	breadbot.Command `keys:"guess"`
}

func (c *GuessCommand) Main(ev *breadbot.CommandEvent) {
	w, _ := breadbot.FindPlugin[*waiter.Waiter](ev.Client().Plugins())
	_, _ = ev.Reply("pick a number")
	w.On(waiter.SameAuthor(ev)).
		Consume().
		Do(func(m *discordgo.Message) {
			_, _ = ev.Reply("you said " + m.Content)
		}).
		Start()
}

func TestConsumingActionThroughClient(t *testing.T) {
	w := waiter.New()
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(w)
	breadbot.AddTypeOf[GuessCommand](b)
	c, err := b.Build()
	require.NoError(t, err)

	r := &breadbottest.Recorder{}
	var mu sync.Mutex
	dispatch := func(m *discordgo.Message) bool {
		mu.Lock()
		defer mu.Unlock()
		return c.Dispatch(context.Background(), r, breadbottest.BotID, m)
	}

	assert.True(t, dispatch(msg("7", "!guess")))
	assert.Equal(t, 1, w.Len())
	assert.False(t, dispatch(msg("7", "!guess")))
	assert.Equal(t, []string{"pick a number", "you said !guess"}, r.Sent())
	assert.Equal(t, 0, w.Len())
}

package cooldown_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/breadbot/breadbottest"
	"github.com/keshon/breadbot/pkg/plugins/cooldown"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type DailyCommand struct {
	breadbot.Command  `keys:"daily"`
	cooldown.Cooldown `every:"10s" burst:"2"`
}

func (c *DailyCommand) Main() string { return "claimed" }

type SlowCommand struct {
	breadbot.Command `keys:"slow"`
	cooldown.Cooldown
}

func (c *SlowCommand) Main() string { return "slow" }

func setup(t *testing.T) (*breadbot.Client, *cooldown.Plugin, *clock) {
	t.Helper()
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	p := cooldown.New(
		cooldown.WithDefault(time.Second, 1),
		cooldown.WithCleanup(0, time.Minute),
		cooldown.WithClock(clk.Now),
		cooldown.WithMessage("wait %s"),
	)
	b := breadbot.NewClientBuilder().SetLogger(zerolog.Nop())
	b.AddPlugin(p)
	breadbot.AddTypeOf[DailyCommand](b)
	breadbot.AddTypeOf[SlowCommand](b)
	b.AddCommand(func() string { return "free" }, func(h *breadbot.HandlerBuilder) { h.SetKeys("free") })
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, p, clk
}

func send(c *breadbot.Client, user, content string) []string {
	return breadbottest.Send(c, breadbottest.From(breadbottest.Message(content), user))
}

func TestBurstThenWait(t *testing.T) {
	c, _, clk := setup(t)

	assert.Equal(t, []string{"claimed"}, send(c, "1", "!daily"))
	assert.Equal(t, []string{"claimed"}, send(c, "1", "!daily"))
	assert.Equal(t, []string{"wait 10s"}, send(c, "1", "!daily"))

	clk.Advance(4 * time.Second)
	assert.Equal(t, []string{"wait 6s"}, send(c, "1", "!daily"))

	clk.Advance(6 * time.Second)
	assert.Equal(t, []string{"claimed"}, send(c, "1", "!daily"))
}

func TestBucketsArePerUserAndCommand(t *testing.T) {
	c, p, _ := setup(t)

	assert.Equal(t, []string{"slow"}, send(c, "1", "!slow"))
	assert.Equal(t, []string{"wait 1s"}, send(c, "1", "!slow"))
	assert.Equal(t, []string{"slow"}, send(c, "2", "!slow"))
	assert.Equal(t, []string{"claimed"}, send(c, "1", "!daily"))
	assert.Equal(t, 3, p.Len())

	for range 5 {
		assert.Equal(t, []string{"free"}, send(c, "1", "!free"))
	}
	assert.Equal(t, 3, p.Len())

	p.Reset("1")
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, []string{"slow"}, send(c, "1", "!slow"))
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	c, p, clk := setup(t)

	send(c, "1", "!slow")
	clk.Advance(45 * time.Second)
	send(c, "2", "!slow")
	clk.Advance(30 * time.Second)

	assert.Equal(t, 1, p.Sweep())
	assert.Equal(t, 1, p.Len())
}

func TestFromTag(t *testing.T) {
	c := cooldown.Cooldown{}.FromTag(`every:"1m30s" burst:"3"`).(cooldown.Cooldown)
	assert.Equal(t, cooldown.Cooldown{Every: 90 * time.Second, Burst: 3}, c)

	c = cooldown.Cooldown{}.FromTag(`every:"soon"`).(cooldown.Cooldown)
	assert.Zero(t, c)
}

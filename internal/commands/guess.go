package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/cooldown"
	"github.com/keshon/breadbot/pkg/plugins/waiter"
)

const (
	guessMax   = 100
	guessTries = 7
)

var guessTimeout = 2 * time.Minute

// GuessCommand starts a number guessing game with the author.
type GuessCommand struct {
	breadbot.Command  `keys:"guess" group:"fun" desc:"Guess the number I'm thinking of"`
	cooldown.Cooldown `every:"30s"`
}

func (*GuessCommand) Main(ev *breadbot.CommandEvent) string {
	w, ok := breadbot.FindPlugin[*waiter.Waiter](ev.Client().Plugins())
	if !ok {
		return "Games are not available right now."
	}
	secret := intN(guessMax) + 1
	sender, channelID := ev.Sender(), ev.ChannelID()
	reply := func(format string, args ...any) {
		_, _ = sender.ChannelMessageSend(channelID, fmt.Sprintf(format, args...))
	}

	from := waiter.SameAuthor(ev)
	var tries atomic.Int32
	action := w.On(func(m *discordgo.Message) bool {
		_, ok := guessOf(m)
		return ok && from(m)
	}).
		Consume().
		Timeout(guessTimeout).
		Until(func(m *discordgo.Message, runs int) bool {
			n, _ := guessOf(m)
			return n == secret || runs >= guessTries
		}).
		Do(func(m *discordgo.Message) {
			n, _ := guessOf(m)
			try := int(tries.Add(1))
			switch {
			case n == secret:
				reply("Correct! The number was %d, found in %d tries.", secret, try)
			case try >= guessTries:
				reply("Out of tries. The number was %d.", secret)
			case n < secret:
				reply("Higher.")
			default:
				reply("Lower.")
			}
		}).
		Start()

	go func() {
		if _, err := action.Wait(context.Background()); errors.Is(err, waiter.ErrTimeout) {
			reply("Time is up. The number was %d.", secret)
		}
	}()
	return fmt.Sprintf("I'm thinking of a number between 1 and %d. You have %d tries.", guessMax, guessTries)
}

func guessOf(m *discordgo.Message) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(m.Content))
	return n, err == nil
}

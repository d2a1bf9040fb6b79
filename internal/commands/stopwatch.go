package commands

import (
	"fmt"
	"time"

	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/cooldown"
	"github.com/keshon/breadbot/pkg/response"
)

var (
	stopwatchTick  = 5 * time.Second
	stopwatchLimit = 10 * time.Minute
)

// StopwatchCommand posts a message that keeps counting until it is deleted,
// replaced by the author's next stopwatch, or hits the limit.
type StopwatchCommand struct {
	breadbot.Command `keys:"stopwatch,sw" group:"util" desc:"Start a stopwatch in this channel"`
	cooldown.Cooldown
}

func (*StopwatchCommand) Main(ev *breadbot.CommandEvent) *response.Live {
	live := response.NewLive(stopwatchText(0, false)).Exclusive("stopwatch:" + ev.AuthorID())
	start := time.Now()
	tick, limit := stopwatchTick, stopwatchLimit
	go func() {
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-live.Done():
				return
			case now := <-t.C:
				elapsed := now.Sub(start)
				if elapsed >= limit {
					_ = live.Update(stopwatchText(limit, true))
					live.Cancel()
					return
				}
				if err := live.Update(stopwatchText(elapsed, false)); err != nil {
					return
				}
			}
		}
	}()
	return live
}

func stopwatchText(d time.Duration, stopped bool) string {
	if stopped {
		return fmt.Sprintf("⏱️ %s (stopped)", d.Truncate(time.Second))
	}
	return fmt.Sprintf("⏱️ %s", d.Truncate(time.Second))
}

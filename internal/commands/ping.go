package commands

import (
	"fmt"
	"time"

	"github.com/keshon/breadbot/pkg/breadbot"
)

type PingCommand struct {
	breadbot.Command `keys:"ping" group:"general" desc:"Check that the bot is listening"`
}

func (*PingCommand) Main(ev *breadbot.CommandEvent) string {
	sent := ev.Message().Timestamp
	if sent.IsZero() {
		return "🏓 Pong!"
	}
	return fmt.Sprintf("🏓 Pong! Response time: `%dms`", time.Since(sent).Milliseconds())
}

// EchoCommand repeats its arguments.
type EchoCommand struct {
	breadbot.Command `keys:"echo,say" group:"general" desc:"Repeat a message"`
}

func (*EchoCommand) Annotations() breadbot.Annotations {
	return breadbot.Annotations{
		"Main.0": {breadbot.Name("text"), breadbot.Width(0), breadbot.Required{}},
	}
}

func (*EchoCommand) Main(text string) string { return text }

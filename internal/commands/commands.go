// Package commands holds the bot's built-in text commands. Command structs
// register themselves from init and are picked up with
// ClientBuilder.AddPackage.
package commands

import (
	"math/rand/v2"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const embedColor = 0xb01e66

// intN returns a value in [0, n). Tests replace it.
var intN = rand.IntN

func init() {
	breadbot.Register(
		PingCommand{},
		EchoCommand{},
		RollCommand{},
		RandomCommand{},
		MathCommand{},
		StopwatchCommand{},
		GuessCommand{},
	)
}

package response

import (
	"errors"

	"github.com/keshon/breadbot/pkg/breadbot"
)

// Reaction answers a command by reacting to its message instead of replying.
type Reaction []string

var _ breadbot.Response = Reaction(nil)

// React returns a response adding each emoji to the command message in order.
func React(emoji ...string) Reaction { return Reaction(emoji) }

func (r Reaction) Send(ev *breadbot.CommandEvent) error {
	var errs []error
	for _, e := range r {
		if err := ev.React(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

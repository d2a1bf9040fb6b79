// Package waiter lets commands wait for follow-up messages.
//
//	w, _ := breadbot.FindPlugin[*waiter.Waiter](ev.Client().Plugins())
//	msg, err := w.Next(ctx, waiter.SameAuthor(ev))
package waiter

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
)

var (
	ErrCancelled = errors.New("waiter: cancelled")
	ErrTimeout   = errors.New("waiter: timed out")
)

// Waiter routes incoming messages to pending actions.
type Waiter struct {
	mu      sync.RWMutex
	actions map[*Action]struct{}
}

func New() *Waiter {
	return &Waiter{actions: make(map[*Action]struct{})}
}

func (w *Waiter) Initialize(*breadbot.ClientBuilder) error { return nil }

// On starts describing an action for messages accepted by match. Nothing is
// registered until Start.
func (w *Waiter) On(match func(*discordgo.Message) bool) *Action {
	return &Action{
		w:     w,
		match: match,
		stop:  func(*discordgo.Message, int) bool { return true },
		done:  make(chan struct{}),
	}
}

// Next waits for the first message accepted by match. The action is
// cancelled when ctx ends first.
func (w *Waiter) Next(ctx context.Context, match func(*discordgo.Message) bool) (*discordgo.Message, error) {
	a := w.On(match).Start()
	msg, err := a.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		a.Cancel()
	}
	return msg, err
}

// Len returns the number of pending actions.
func (w *Waiter) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actions)
}

// OnMessage offers msg to every pending action. It reports true when a
// consuming action accepted the message, which keeps it from command
// dispatch.
func (w *Waiter) OnMessage(_ context.Context, _ breadbot.Sender, msg *discordgo.Message) bool {
	w.mu.RLock()
	pending := make([]*Action, 0, len(w.actions))
	for a := range w.actions {
		pending = append(pending, a)
	}
	w.mu.RUnlock()

	consumed := false
	for _, a := range pending {
		if a.accept(msg) && a.consume {
			consumed = true
		}
	}
	return consumed
}

// Shutdown cancels every pending action.
func (w *Waiter) Shutdown() {
	w.mu.Lock()
	pending := w.actions
	w.actions = make(map[*Action]struct{})
	w.mu.Unlock()
	for a := range pending {
		a.Cancel()
	}
}

func (w *Waiter) add(a *Action) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actions[a] = struct{}{}
}

func (w *Waiter) remove(a *Action) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.actions, a)
}

// SameAuthor matches messages from the author of ev in its channel.
func SameAuthor(ev *breadbot.CommandEvent) func(*discordgo.Message) bool {
	return FromUser(ev.ChannelID(), ev.AuthorID())
}

// FromUser matches messages from userID in channelID.
func FromUser(channelID, userID string) func(*discordgo.Message) bool {
	return func(m *discordgo.Message) bool {
		return m.ChannelID == channelID && m.Author != nil && m.Author.ID == userID
	}
}

package response

import (
	"errors"
	"sync"

	"github.com/keshon/breadbot/pkg/breadbot"
)

// ErrCancelled is returned when updating a cancelled response.
var ErrCancelled = errors.New("response cancelled")

// Live is a reply that can still change after it was sent. It stays tracked
// by a Manager only while something else holds it.
type Live struct {
	mu        sync.Mutex
	content   string
	key       string
	sender    breadbot.Sender
	channelID string
	messageID string
	cancelled bool
	done      chan struct{}
	onCancel  []func()
}

// NewLive returns an unsent response.
func NewLive(content string) *Live {
	return &Live{content: content, done: make(chan struct{})}
}

// Exclusive makes a newer Live with the same key in the same channel cancel
// this one.
func (l *Live) Exclusive(key string) *Live {
	l.key = key
	return l
}

// OnCancel registers fn to run once when the response is cancelled.
func (l *Live) OnCancel(fn func()) *Live {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onCancel = append(l.onCancel, fn)
	return l
}

// Send posts the response to the event's channel.
func (l *Live) Send(ev *breadbot.CommandEvent) error {
	l.mu.Lock()
	content := l.content
	l.mu.Unlock()

	msg, err := ev.Reply(content)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sender = ev.Sender()
	l.channelID = msg.ChannelID
	l.messageID = msg.ID
	return nil
}

// Update edits the sent message.
func (l *Live) Update(content string) error {
	l.mu.Lock()
	if l.cancelled {
		l.mu.Unlock()
		return ErrCancelled
	}
	l.content = content
	sender, channelID, messageID := l.sender, l.channelID, l.messageID
	l.mu.Unlock()

	if sender == nil {
		return nil
	}
	_, err := sender.ChannelMessageEdit(channelID, messageID, content)
	return err
}

// Cancel stops the response. It is safe to call more than once.
func (l *Live) Cancel() {
	l.mu.Lock()
	if l.cancelled {
		l.mu.Unlock()
		return
	}
	l.cancelled = true
	hooks := l.onCancel
	l.onCancel = nil
	close(l.done)
	l.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Done is closed once the response is cancelled.
func (l *Live) Done() <-chan struct{} { return l.done }

func (l *Live) Content() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.content
}

func (l *Live) MessageID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.messageID
}

func (l *Live) ChannelID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.channelID
}

func (l *Live) Cancelled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled
}

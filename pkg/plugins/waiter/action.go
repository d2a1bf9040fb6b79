package waiter

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

type state uint8

const (
	pending state = iota
	waiting
	finished
)

// Action runs for matching messages until its stop condition holds, it
// times out, or it is cancelled. Configure it before Start.
type Action struct {
	w       *Waiter
	match   func(*discordgo.Message) bool
	do      func(*discordgo.Message)
	stop    func(*discordgo.Message, int) bool
	consume bool
	timeout time.Duration

	mu    sync.Mutex
	state state
	runs  int
	last  *discordgo.Message
	err   error
	timer *time.Timer
	done  chan struct{}
}

// Do sets the callback run for every accepted message.
func (a *Action) Do(fn func(*discordgo.Message)) *Action {
	a.do = fn
	return a
}

// Until sets the stop condition; it receives the message and how many
// messages were accepted so far. The default stops after the first.
func (a *Action) Until(stop func(msg *discordgo.Message, runs int) bool) *Action {
	a.stop = stop
	return a
}

// Times stops after n accepted messages.
func (a *Action) Times(n int) *Action {
	return a.Until(func(_ *discordgo.Message, runs int) bool { return runs >= n })
}

// Consume keeps accepted messages from command dispatch.
func (a *Action) Consume() *Action {
	a.consume = true
	return a
}

// Timeout finishes the action with ErrTimeout after d.
func (a *Action) Timeout(d time.Duration) *Action {
	a.timeout = d
	return a
}

// Start registers the action. Starting twice does nothing.
func (a *Action) Start() *Action {
	a.mu.Lock()
	if a.state != pending {
		a.mu.Unlock()
		return a
	}
	a.state = waiting
	if a.timeout > 0 {
		a.timer = time.AfterFunc(a.timeout, func() { a.finish(ErrTimeout) })
	}
	a.mu.Unlock()
	a.w.add(a)
	return a
}

// Cancel stops the action. It reports whether the action was still
// unfinished; later calls return false.
func (a *Action) Cancel() bool {
	return a.finish(ErrCancelled)
}

// Done is closed once the action finished.
func (a *Action) Done() <-chan struct{} { return a.done }

// Runs returns how many messages were accepted.
func (a *Action) Runs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs
}

// Wait blocks until the action finishes or ctx ends. It returns the last
// accepted message, with ErrCancelled or ErrTimeout when the action did not
// complete normally.
func (a *Action) Wait(ctx context.Context) (*discordgo.Message, error) {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.last, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Action) accept(msg *discordgo.Message) bool {
	a.mu.Lock()
	if a.state != waiting || !a.match(msg) {
		a.mu.Unlock()
		return false
	}
	a.runs++
	a.last = msg
	last := a.stop(msg, a.runs)
	if last {
		a.state = finished
	}
	a.mu.Unlock()

	if a.do != nil {
		a.do(msg)
	}
	if last {
		a.close()
	}
	return true
}

func (a *Action) finish(err error) bool {
	a.mu.Lock()
	if a.state == finished {
		a.mu.Unlock()
		return false
	}
	a.state = finished
	a.err = err
	a.mu.Unlock()
	a.close()
	return true
}

func (a *Action) close() {
	a.w.remove(a)
	if a.timer != nil {
		a.timer.Stop()
	}
	close(a.done)
}

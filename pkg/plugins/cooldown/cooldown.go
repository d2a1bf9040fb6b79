// Package cooldown rate limits commands per user with token buckets.
package cooldown

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const ID = "cooldown"

// Cooldown lets a user run a command Burst times, then once per Every. A
// zero Every uses the plugin default. As an embedded field it reads the tags
// every:"5s" and burst:"2".
type Cooldown struct {
	Every time.Duration
	Burst int
}

func (Cooldown) FromTag(tag reflect.StructTag) any {
	var c Cooldown
	if d, err := time.ParseDuration(tag.Get("every")); err == nil {
		c.Every = d
	}
	if n, err := strconv.Atoi(tag.Get("burst")); err == nil {
		c.Burst = n
	}
	return c
}

type key struct {
	command string
	user    string
}

type bucket struct {
	limiter *rate.Limiter
	every   time.Duration
	seen    time.Time
}

// Plugin keeps one bucket per command and user. Buckets idle for longer
// than the idle TTL are dropped by a background cleaner.
type Plugin struct {
	mu      sync.Mutex
	buckets map[key]*bucket

	def      Cooldown
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	message  string

	stop     chan struct{}
	stopOnce sync.Once
}

type Option func(*Plugin)

// WithDefault sets the cooldown used when a property leaves Every zero.
func WithDefault(every time.Duration, burst int) Option {
	return func(p *Plugin) { p.def = Cooldown{Every: every, Burst: burst} }
}

// WithCleanup sets how often idle buckets are swept and how long a bucket may
// stay unused. A zero interval disables the background cleaner.
func WithCleanup(interval, idle time.Duration) Option {
	return func(p *Plugin) {
		p.interval = interval
		p.idle = idle
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) { p.now = now }
}

// WithMessage sets the reply format; %s receives the remaining wait.
func WithMessage(format string) Option {
	return func(p *Plugin) { p.message = format }
}

func New(opts ...Option) *Plugin {
	p := &Plugin{
		buckets:  make(map[key]*bucket),
		def:      Cooldown{Every: 3 * time.Second, Burst: 1},
		idle:     10 * time.Minute,
		interval: time.Minute,
		now:      time.Now,
		message:  "Slow down, try again in %s.",
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	b.Preprocessors().Associate(reflect.TypeFor[Cooldown](), func(v any) breadbot.Preprocessor {
		c := p.resolve(v.(Cooldown))
		if c.Every <= 0 {
			return nil
		}
		return breadbot.NewPredicate(ID, func(_ any, h *breadbot.Handler, ev *breadbot.CommandEvent) bool {
			wait := p.take(h.Path(), ev.AuthorID(), c)
			if wait > 0 {
				_, _ = ev.Replyf(p.message, wait.Round(100*time.Millisecond))
				return false
			}
			return true
		})
	})
	if p.interval > 0 {
		go p.clean()
	}
	return nil
}

func (p *Plugin) resolve(c Cooldown) Cooldown {
	if c.Every <= 0 {
		c.Every = p.def.Every
	}
	if c.Burst <= 0 {
		c.Burst = max(p.def.Burst, 1)
	}
	return c
}

// take consumes a token and returns zero, or returns how long the user has
// to wait.
func (p *Plugin) take(command, user string, c Cooldown) time.Duration {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key{command: command, user: user}
	bk, ok := p.buckets[k]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(rate.Every(c.Every), c.Burst), every: c.Every}
		p.buckets[k] = bk
	}
	bk.seen = now
	if bk.limiter.AllowN(now, 1) {
		return 0
	}
	missing := 1 - bk.limiter.TokensAt(now)
	return time.Duration(missing * float64(bk.every))
}

// Reset forgets the buckets of user.
func (p *Plugin) Reset(user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.buckets {
		if k.user == user {
			delete(p.buckets, k)
		}
	}
}

// Len returns the number of live buckets.
func (p *Plugin) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

// Sweep drops buckets unused for longer than the idle TTL and returns how
// many were dropped.
func (p *Plugin) Sweep() int {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for k, bk := range p.buckets {
		if now.Sub(bk.seen) > p.idle {
			delete(p.buckets, k)
			n++
		}
	}
	return n
}

func (p *Plugin) clean() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// Shutdown stops the background cleaner.
func (p *Plugin) Shutdown() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Plugin) String() string {
	return fmt.Sprintf("cooldown(%s/%d)", p.def.Every, p.def.Burst)
}

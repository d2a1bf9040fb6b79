// Package response tracks replies that keep changing after a command returns,
// such as timers and menus, and cancels them when their message goes away.
package response

import (
	"sync"
	"time"
	"weak"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/breadbot/pkg/breadbot"
)

// DefaultPruneInterval is how often cleared references are swept.
const DefaultPruneInterval = 5 * time.Minute

// Manager is a plugin mapping sent message ids to live responses. It holds
// them weakly; a response nobody references is dropped on the next prune.
type Manager struct {
	mu        sync.Mutex
	links     map[string]weak.Pointer[Live]
	exclusive map[string]weak.Pointer[Live]
	puts      int
	threshold int

	interval time.Duration
	logger   zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithPruneInterval sets the background sweep period; zero disables it.
func WithPruneInterval(d time.Duration) Option {
	return func(m *Manager) { m.interval = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		links:     make(map[string]weak.Pointer[Live]),
		exclusive: make(map[string]weak.Pointer[Live]),
		threshold: 100,
		interval:  DefaultPruneInterval,
		logger:    log.Logger,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize registers the *Live result handler and starts the sweeper.
func (m *Manager) Initialize(b *breadbot.ClientBuilder) error {
	breadbot.RegisterResultHandler(b, func(ev *breadbot.CommandEvent, _ *breadbot.Handler, l *Live) error {
		return m.Send(ev, l)
	})
	if m.interval > 0 {
		go m.sweep()
	}
	return nil
}

func (m *Manager) sweep() {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := m.Prune(); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("pruned live responses")
			}
		case <-m.stop:
			return
		}
	}
}

// Send posts l and tracks it.
func (m *Manager) Send(ev *breadbot.CommandEvent, l *Live) error {
	if err := l.Send(ev); err != nil {
		return err
	}
	m.Track(l)
	return nil
}

// Track records a sent response. An exclusive response cancels the previous
// one with the same key in the same channel.
func (m *Manager) Track(l *Live) {
	id := l.MessageID()
	if id == "" {
		return
	}
	var previous *Live
	m.mu.Lock()
	m.links[id] = weak.Make(l)
	if l.key != "" {
		slot := l.ChannelID() + "/" + l.key
		previous = m.exclusive[slot].Value()
		m.exclusive[slot] = weak.Make(l)
	}
	m.puts++
	if m.puts > m.threshold {
		m.pruneLocked()
		m.puts = 0
		m.threshold = max(100, len(m.links)/4)
	}
	m.mu.Unlock()

	if previous != nil && previous != l {
		previous.Cancel()
	}
}

// Get returns the live response for a message, if it is still referenced.
func (m *Manager) Get(messageID string) (*Live, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.links[messageID].Value()
	return l, l != nil
}

// Len returns the number of tracked entries, including cleared ones not yet
// pruned.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

// Prune drops entries whose response was collected or cancelled and returns
// how many were removed.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked()
}

func (m *Manager) pruneLocked() int {
	removed := 0
	for id, p := range m.links {
		if l := p.Value(); l == nil || l.Cancelled() {
			delete(m.links, id)
			removed++
		}
	}
	for slot, p := range m.exclusive {
		if l := p.Value(); l == nil || l.Cancelled() {
			delete(m.exclusive, slot)
		}
	}
	return removed
}

// OnMessageDelete cancels the response attached to a deleted message.
func (m *Manager) OnMessageDelete(_, messageID string) {
	m.mu.Lock()
	l := m.links[messageID].Value()
	delete(m.links, messageID)
	m.mu.Unlock()
	if l != nil {
		l.Cancel()
	}
}

// Shutdown cancels every live response and stops the sweeper.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	live := make([]*Live, 0, len(m.links))
	for _, p := range m.links {
		if l := p.Value(); l != nil {
			live = append(live, l)
		}
	}
	clear(m.links)
	clear(m.exclusive)
	m.mu.Unlock()
	for _, l := range live {
		l.Cancel()
	}
}

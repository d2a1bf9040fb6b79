// Package commandlog records every command run to a Recorder.
package commandlog

import (
	"context"
	"time"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const ID = "commandlog"

// Entry is one recorded command run.
type Entry struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Arguments string    `json:"arguments,omitempty"`
	Success   bool      `json:"success"`
	Datetime  time.Time `json:"datetime"`
}

// Recorder persists entries.
type Recorder interface {
	RecordCommand(ctx context.Context, e Entry) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Entry) error

func (f RecorderFunc) RecordCommand(ctx context.Context, e Entry) error { return f(ctx, e) }

// Skip keeps a command out of the log.
type Skip struct{}

// Plugin wraps every executable handler with a recording preprocessor.
type Plugin struct {
	rec Recorder
	now func() time.Time
}

func New(rec Recorder) *Plugin {
	return &Plugin{rec: rec, now: time.Now}
}

func (p *Plugin) Initialize(*breadbot.ClientBuilder) error { return nil }

// BeforeBuild attaches the recorder to every command added so far.
func (p *Plugin) BeforeBuild(b *breadbot.ClientBuilder) error {
	b.Walk(func(hb *breadbot.HandlerBuilder) {
		if breadbot.HasProperty[Skip](hb.Properties()) {
			return
		}
		hb.AddPreprocessorFunc(ID, p.record)
	})
	return nil
}

func (p *Plugin) record(_ any, h *breadbot.Handler, ev *breadbot.CommandEvent, stack *breadbot.ProcessStack) {
	stack.Next()
	if !stack.Ran() {
		return
	}
	e := Entry{
		GuildID:   ev.GuildID(),
		ChannelID: ev.ChannelID(),
		UserID:    ev.AuthorID(),
		Command:   h.Path(),
		Arguments: ev.Residual(),
		Success:   stack.Result(),
		Datetime:  p.now(),
	}
	if a := ev.Message().Author; a != nil {
		e.Username = a.Username
	}
	if err := p.rec.RecordCommand(ev.Context(), e); err != nil {
		ev.Logger().Warn().Err(err).Str("command", e.Command).Msg("failed to log command")
	}
}

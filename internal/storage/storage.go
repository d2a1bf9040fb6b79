package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keshon/breadbot/datastore"
	"github.com/keshon/breadbot/pkg/plugins/commandlog"
)

const commandHistoryLimit int = 20

// directKey holds the record shared by direct messages.
const directKey = "direct"

type Storage struct {
	ds *datastore.DataStore
}

// Record is everything kept for one guild.
type Record struct {
	Prefix           string             `json:"prefix,omitempty"`
	CommandsHistory  []commandlog.Entry `json:"cmd_history"`
	CommandsDisabled []string           `json:"cmd_disabled"`
}

func New(filePath string, logger zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = logger.With().Str("component", "datastore").Logger()
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func key(guildID string) string {
	if guildID == "" {
		return directKey
	}
	return guildID
}

func (s *Storage) guildRecord(guildID string) (Record, error) {
	var r Record
	if _, err := s.ds.Get(key(guildID), &r); err != nil {
		return Record{}, fmt.Errorf("error reading guild record: %w", err)
	}
	return r, nil
}

func (s *Storage) update(guildID string, fn func(*Record) error) error {
	return datastore.Update(s.ds, key(guildID), fn)
}

// GuildPrefix returns the stored prefix of guildID.
func (s *Storage) GuildPrefix(guildID string) (string, bool) {
	r, err := s.guildRecord(guildID)
	if err != nil || r.Prefix == "" {
		return "", false
	}
	return r.Prefix, true
}

// SetGuildPrefix stores prefix for guildID; an empty prefix clears it.
func (s *Storage) SetGuildPrefix(guildID, prefix string) error {
	return s.update(guildID, func(r *Record) error {
		r.Prefix = prefix
		return nil
	})
}

// RecordCommand appends e to the guild's command history, keeping the most
// recent entries.
func (s *Storage) RecordCommand(_ context.Context, e commandlog.Entry) error {
	return s.update(e.GuildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, e)
		if n := len(r.CommandsHistory); n > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[n-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) CommandHistory(guildID string) ([]commandlog.Entry, error) {
	r, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandsHistory, nil
}

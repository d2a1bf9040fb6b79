// Command breadbot-cli runs the bot's commands against the terminal instead
// of Discord. It uses the same configuration and storage as the gateway bot.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/breadbot/internal/bot"
	"github.com/keshon/breadbot/internal/config"
	"github.com/keshon/breadbot/internal/logging"
	"github.com/keshon/breadbot/internal/storage"
	"github.com/keshon/breadbot/pkg/breadbot"
)

type options struct {
	configFile string
	storage    string
	guild      string
	user       string
	admin      bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "breadbot-cli",
		Short: "Talk to the bot from a terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, opts, func(s *session) error {
				return s.repl()
			})
		},
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.storage, "storage", "", "datastore file, overrides STORAGE_PATH")
	flags.StringVar(&opts.guild, "guild", "console", "guild id messages come from; empty for a direct message")
	flags.StringVar(&opts.user, "user", "1", "author id of typed messages")
	flags.BoolVar(&opts.admin, "admin", false, "give the author administrator permission")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(newSendCmd(opts), newTreeCmd(opts))
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Dispatch a single message and print the replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(s *session) error {
				if !s.dispatch(strings.Join(args, " ")) {
					fmt.Fprintln(s.out, "(no command ran)")
				}
				return nil
			})
		},
	}
}

func newTreeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the command tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, logger, cleanup, err := open(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()
			fmt.Fprint(cmd.OutOrStdout(), bot.NewBuilder(cfg, store, logger).String())
			return nil
		},
	}
}

func open(cmd *cobra.Command, opts *options) (*config.Config, *storage.Storage, zerolog.Logger, func(), error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	if opts.storage != "" {
		cfg.StoragePath = opts.storage
	}
	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger, closer := logging.New(logging.Options{Level: level, File: cfg.LogFile, Console: cmd.ErrOrStderr()})

	store, err := storage.New(cfg.StoragePath, logger)
	if err != nil {
		_ = closer.Close()
		return nil, nil, logger, nil, fmt.Errorf("opening storage: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("closing storage")
		}
		_ = closer.Close()
	}
	return cfg, store, logger, cleanup, nil
}

func withClient(cmd *cobra.Command, opts *options, fn func(*session) error) error {
	cfg, store, logger, cleanup, err := open(cmd, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := bot.Build(cfg, store, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	var perms int64
	if opts.admin {
		perms = discordgo.PermissionAdministrator
	}
	out := cmd.OutOrStdout()
	s := &session{
		client: client,
		sender: newConsoleSender(out, perms),
		out:    out,
		guild:  opts.guild,
		user:   opts.user,
		ctx:    cmd.Context(),
	}
	return fn(s)
}

// session is one terminal conversation with the client.
type session struct {
	client *breadbot.Client
	sender *consoleSender
	out    io.Writer
	guild  string
	user   string
	ctx    context.Context
	n      int
}

func (s *session) dispatch(content string) bool {
	s.n++
	msg := &discordgo.Message{
		ID:        fmt.Sprintf("in%d", s.n),
		ChannelID: "console",
		GuildID:   s.guild,
		Content:   content,
		Author:    &discordgo.User{ID: s.user, Username: "console"},
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Dispatch(ctx, s.sender, "0", msg)
}

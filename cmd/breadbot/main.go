// Command breadbot connects the command client to Discord.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/keshon/breadbot/internal/bot"
	"github.com/keshon/breadbot/internal/config"
	"github.com/keshon/breadbot/internal/discord"
	"github.com/keshon/breadbot/internal/logging"
	"github.com/keshon/breadbot/internal/storage"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, closer := logging.New(logging.Options{Level: cfg.Level(), File: cfg.LogFile})
	defer closer.Close()
	log.Logger = logger

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("bot stopped")
		closer.Close()
		os.Exit(1)
	}
	logger.Info().Msg("bot exited cleanly")
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.Logger
	logger.Info().Str("prefix", cfg.Prefix).Str("storage", cfg.StoragePath).Msg("starting bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.StoragePath, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("closing storage")
		}
	}()

	client, err := bot.Build(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}
	defer client.Close()

	b, err := discord.New(cfg.DiscordToken, client, logger)
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

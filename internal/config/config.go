package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is resolved from defaults, then an optional YAML file, then the
// environment (including a .env file in the working directory).
type Config struct {
	DiscordToken string   `yaml:"discord_token" env:"DISCORD_TOKEN"`
	Prefix       string   `yaml:"prefix" env:"BOT_PREFIX"`
	StoragePath  string   `yaml:"storage_path" env:"STORAGE_PATH"`
	OwnerIDs     []string `yaml:"owner_ids" env:"OWNER_IDS"`
	SourceGuild  string   `yaml:"source_guild" env:"SOURCE_GUILD"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"`

	PreprocessorPriority []string      `yaml:"preprocessor_priority" env:"PREPROCESSOR_PRIORITY"`
	CommandCooldown      time.Duration `yaml:"command_cooldown" env:"COMMAND_COOLDOWN"`
	CommandCooldownBurst int           `yaml:"command_cooldown_burst" env:"COMMAND_COOLDOWN_BURST"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prefix:      "!",
		StoragePath: "datastore.json",
		LogLevel:    "info",
		PreprocessorPriority: []string{
			"sourceguild", "guildonly", "groups", "admin", "permissions", "cooldown", "commandlog",
		},
		CommandCooldown:      3 * time.Second,
		CommandCooldownBurst: 1,
	}
}

// Load resolves the configuration. path, or CONFIG_FILE when path is empty,
// names an optional YAML file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks what the gateway bot needs to start.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	if c.Prefix == "" {
		return errors.New("BOT_PREFIX cannot be empty")
	}
	return nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Package bot assembles the command client from configuration: plugins,
// preprocessor order, built-in commands and the storage they share.
package bot

import (
	"github.com/rs/zerolog"

	"github.com/keshon/breadbot/internal/commands"
	"github.com/keshon/breadbot/internal/config"
	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/admin"
	"github.com/keshon/breadbot/pkg/plugins/commandlog"
	"github.com/keshon/breadbot/pkg/plugins/cooldown"
	"github.com/keshon/breadbot/pkg/plugins/groups"
	"github.com/keshon/breadbot/pkg/plugins/help"
	"github.com/keshon/breadbot/pkg/plugins/prefix"
	"github.com/keshon/breadbot/pkg/plugins/sourceguild"
	"github.com/keshon/breadbot/pkg/plugins/waiter"
	"github.com/keshon/breadbot/pkg/response"
)

// CommandsPackage is where the built-in commands register themselves.
const CommandsPackage = "github.com/keshon/breadbot/internal/commands"

// Store is the per-guild state the plugins persist.
type Store interface {
	prefix.Store
	groups.Store
	commandlog.Recorder
	commands.HistorySource
}

// NewBuilder returns a builder with every plugin installed and the built-in
// commands added. Callers may add more before Build.
func NewBuilder(cfg *config.Config, store Store, logger zerolog.Logger) *breadbot.ClientBuilder {
	b := breadbot.NewClientBuilder().
		SetLogger(logger).
		SetPreprocessorPriority(cfg.PreprocessorPriority...)

	b.AddPlugin(prefix.New(cfg.Prefix, store))
	b.AddPlugin(admin.New(cfg.OwnerIDs...))
	b.AddPlugin(sourceguild.New(cfg.SourceGuild))
	b.AddPlugin(cooldown.New(cooldown.WithDefault(cfg.CommandCooldown, cfg.CommandCooldownBurst)))
	b.AddPlugin(waiter.New())
	b.AddPlugin(response.NewManager(response.WithLogger(logger)))
	// help runs its build hook first so generated help commands are also
	// covered by the group check and the command log
	b.AddPlugin(help.New())
	b.AddPlugin(groups.New(store, "general"))
	b.AddPlugin(commandlog.New(store))

	b.AddPackage(CommandsPackage)
	b.AddObject(&commands.HistoryCommand{Source: store})
	return b
}

// Build returns the ready client.
func Build(cfg *config.Config, store Store, logger zerolog.Logger) (*breadbot.Client, error) {
	return NewBuilder(cfg, store, logger).Build()
}

// Package admin restricts commands to members holding server permissions.
//
// Embed Admin in a command struct (or put it with HandlerBuilder.PutProperty)
// to require the Administrator permission, or Permissions to require any one of
// a set of permissions.
package admin

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/breadbot"
)

const (
	AdminID       = "admin"
	PermissionsID = "permissions"
)

// Admin requires the Administrator permission.
type Admin struct{}

// Permissions requires at least one of Any. As an embedded field it reads
// the tag perms:"Manage Messages,Kick Members".
type Permissions struct {
	Any []int64
}

func (Permissions) FromTag(tag reflect.StructTag) any {
	var p Permissions
	for _, name := range strings.Split(tag.Get("perms"), ",") {
		if bit, ok := PermissionByName(name); ok {
			p.Any = append(p.Any, bit)
		}
	}
	return p
}

// PermissionSource resolves a member's effective permissions in a channel.
// *discordgo.Session satisfies it.
type PermissionSource interface {
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Plugin checks Admin and Permissions properties.
type Plugin struct {
	owners []string
}

// New returns a plugin. owners bypass every check, like a developer id.
func New(owners ...string) *Plugin {
	return &Plugin{owners: slices.DeleteFunc(slices.Clone(owners), func(s string) bool { return s == "" })}
}

func (p *Plugin) Initialize(b *breadbot.ClientBuilder) error {
	breadbot.AssociatePredicate(b, AdminID, func(Admin) breadbot.PreprocessorPredicate {
		return p.guard([]int64{discordgo.PermissionAdministrator})
	})
	breadbot.AssociatePredicate(b, PermissionsID, func(perms Permissions) breadbot.PreprocessorPredicate {
		return p.guard(perms.Any)
	})
	return nil
}

// IsOwner reports whether userID bypasses permission checks.
func (p *Plugin) IsOwner(userID string) bool {
	return userID != "" && slices.Contains(p.owners, userID)
}

// Allowed reports whether the author of ev holds Administrator or any of
// required.
func (p *Plugin) Allowed(ev *breadbot.CommandEvent, required []int64) (bool, error) {
	if p.IsOwner(ev.AuthorID()) {
		return true, nil
	}
	if ev.GuildID() == "" {
		return false, nil
	}
	src, ok := ev.Sender().(PermissionSource)
	if !ok {
		return false, fmt.Errorf("sender %T cannot resolve permissions", ev.Sender())
	}
	perms, err := src.UserChannelPermissions(ev.AuthorID(), ev.ChannelID())
	if err != nil {
		return false, fmt.Errorf("failed to get user permissions: %w", err)
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	for _, bit := range required {
		if perms&bit != 0 {
			return true, nil
		}
	}
	return false, nil
}

func (p *Plugin) guard(required []int64) breadbot.PreprocessorPredicate {
	return func(_ any, h *breadbot.Handler, ev *breadbot.CommandEvent) bool {
		ok, err := p.Allowed(ev, required)
		if err != nil {
			ev.Logger().Warn().Err(err).Str("command", h.Path()).Msg("permission check failed")
			return false
		}
		if !ok {
			_, _ = ev.Reply(deniedMessage(required))
		}
		return ok
	}
}

func deniedMessage(required []int64) string {
	names := make([]string, 0, len(required))
	for _, bit := range required {
		names = append(names, PermissionName(bit))
	}
	return fmt.Sprintf("You need at least one of the following permissions to run this command:\n`%s`",
		strings.Join(names, "`, `"))
}

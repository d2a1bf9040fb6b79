package admin

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// PermissionNames maps permission bits to their display names.
var PermissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:   "Create Instant Invite",
	discordgo.PermissionKickMembers:           "Kick Members",
	discordgo.PermissionBanMembers:            "Ban Members",
	discordgo.PermissionAdministrator:         "Administrator",
	discordgo.PermissionManageChannels:        "Manage Channels",
	discordgo.PermissionManageServer:          "Manage Server",
	discordgo.PermissionAddReactions:          "Add Reactions",
	discordgo.PermissionViewAuditLogs:         "View Audit Logs",
	discordgo.PermissionViewChannel:           "View Channel",
	discordgo.PermissionSendMessages:          "Send Messages",
	discordgo.PermissionSendTTSMessages:       "Send TTS Messages",
	discordgo.PermissionManageMessages:        "Manage Messages",
	discordgo.PermissionEmbedLinks:            "Embed Links",
	discordgo.PermissionAttachFiles:           "Attach Files",
	discordgo.PermissionReadMessageHistory:    "Read Message History",
	discordgo.PermissionMentionEveryone:       "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:     "Use External Emojis",
	discordgo.PermissionUseSlashCommands:      "Use Application Commands",
	discordgo.PermissionManageThreads:         "Manage Threads",
	discordgo.PermissionCreatePublicThreads:   "Create Public Threads",
	discordgo.PermissionCreatePrivateThreads:  "Create Private Threads",
	discordgo.PermissionUseExternalStickers:   "Use External Stickers",
	discordgo.PermissionSendMessagesInThreads: "Send Messages in Threads",
	discordgo.PermissionVoicePrioritySpeaker:  "Priority Speaker",
	discordgo.PermissionVoiceStreamVideo:      "Stream Video",
	discordgo.PermissionVoiceConnect:          "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:            "Speak",
	discordgo.PermissionVoiceMuteMembers:      "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:    "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:      "Move Members",
	discordgo.PermissionVoiceUseVAD:           "Use Voice Activity Detection",
	discordgo.PermissionVoiceRequestToSpeak:   "Request to Speak",
	discordgo.PermissionUseActivities:         "Use Activities",
	discordgo.PermissionChangeNickname:        "Change Nickname",
	discordgo.PermissionManageNicknames:       "Manage Nicknames",
	discordgo.PermissionManageRoles:           "Manage Roles",
	discordgo.PermissionManageWebhooks:        "Manage Webhooks",
	discordgo.PermissionManageEmojis:          "Manage Emojis and Stickers",
	discordgo.PermissionManageEvents:          "Manage Events",
	discordgo.PermissionViewGuildInsights:     "View Guild Insights",
	discordgo.PermissionModerateMembers:       "Moderate Members",
}

var permissionsByName = func() map[string]int64 {
	m := make(map[string]int64, len(PermissionNames))
	for bit, name := range PermissionNames {
		m[foldName(name)] = bit
	}
	return m
}()

func foldName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// PermissionName returns the display name of bit, or its hex value.
func PermissionName(bit int64) string {
	if name, ok := PermissionNames[bit]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", bit)
}

// PermissionByName resolves a display name, ignoring case and spaces.
func PermissionByName(name string) (int64, bool) {
	bit, ok := permissionsByName[foldName(name)]
	return bit, ok
}

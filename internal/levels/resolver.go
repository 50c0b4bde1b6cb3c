package levels

import (
	"context"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// UserFlags are the globally scoped persisted flags for a user.
type UserFlags struct {
	Blacklisted bool
	GlobalAdmin bool
}

// ServerFlags are the per-server persisted flags for a user.
type ServerFlags struct {
	Admin       bool
	Blacklisted bool
}

// Store supplies persisted user flags. Implemented by the storage layer.
type Store interface {
	UserFlags(ctx context.Context, userDID string) (UserFlags, bool)
	ServerFlags(ctx context.Context, userDID, serverDID string) (ServerFlags, bool)
}

// Platform supplies guild and permission lookups from the chat platform.
// Implemented by the discord layer over session state.
type Platform interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	ChannelPermissions(userID, channelID string) (int64, error)
}

// Resolver computes the permission level for a user in a channel.
//
// Precedence is fixed policy: static owner config, then global persisted
// flags, then contextual platform permissions, then per-server persisted
// flags, then plain membership. Resolution never fails; lookups that error
// fall through to the next rule.
type Resolver struct {
	Owners   []string // Discord user IDs always treated as BotOwner
	Store    Store
	Platform Platform
}

// Resolve returns the level for user in channel.
func (r *Resolver) Resolve(ctx context.Context, user *discordgo.User, channel *discordgo.Channel) Level {
	if user == nil {
		return NoAccess
	}
	if slices.Contains(r.Owners, user.ID) {
		return BotOwner
	}

	flags, found := r.userFlags(ctx, user.ID)
	if found && flags.Blacklisted {
		return Blacklisted
	}
	if found && flags.GlobalAdmin {
		return GlobalBotAdmin
	}

	if channel == nil {
		return User
	}

	switch channel.Type {
	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return r.privateLevel(user, channel)
	}

	return r.serverLevel(ctx, user, channel)
}

func (r *Resolver) userFlags(ctx context.Context, userDID string) (UserFlags, bool) {
	if r.Store == nil {
		return UserFlags{}, false
	}
	return r.Store.UserFlags(ctx, userDID)
}

// privateLevel handles direct and group conversations. A participant of a
// plain DM, or the owner of a group DM, is treated as an administrator of
// that conversation; other group participants get the general floor.
func (r *Resolver) privateLevel(user *discordgo.User, channel *discordgo.Channel) Level {
	if len(channel.Recipients) > 0 && !isRecipient(user, channel.Recipients) {
		return NoAccess
	}
	if channel.Type == discordgo.ChannelTypeGroupDM && channel.OwnerID != user.ID {
		return User
	}
	return ServerAdmin
}

func isRecipient(user *discordgo.User, recipients []*discordgo.User) bool {
	for _, rec := range recipients {
		if rec != nil && rec.ID == user.ID {
			return true
		}
	}
	return false
}

func (r *Resolver) serverLevel(ctx context.Context, user *discordgo.User, channel *discordgo.Channel) Level {
	if r.Platform == nil {
		return User
	}

	member, err := r.Platform.Member(channel.GuildID, user.ID)
	if err != nil || member == nil {
		return User
	}

	if guild, err := r.Platform.Guild(channel.GuildID); err == nil && guild != nil {
		if guild.OwnerID == user.ID {
			return ServerOwner
		}
	}

	var flags ServerFlags
	var found bool
	if r.Store != nil {
		flags, found = r.Store.ServerFlags(ctx, user.ID, channel.GuildID)
	}
	if found && flags.Blacklisted {
		return ServerBlacklisted
	}

	if perms, err := r.Platform.ChannelPermissions(user.ID, channel.ID); err == nil {
		if perms&discordgo.PermissionManageChannels != 0 {
			return ServerAdmin
		}
	}

	if found && flags.Admin {
		return ServerBotAdmin
	}

	return ServerUser
}

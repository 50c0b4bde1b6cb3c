package discord

import "github.com/bwmarrin/discordgo"

// sessionPlatform implements levels.Platform over session state, falling
// back to the REST API when state has no answer.
type sessionPlatform struct {
	dg *discordgo.Session
}

func (p *sessionPlatform) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := p.dg.State.Guild(guildID); err == nil {
		return g, nil
	}
	return p.dg.Guild(guildID)
}

func (p *sessionPlatform) Member(guildID, userID string) (*discordgo.Member, error) {
	if m, err := p.dg.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	return p.dg.GuildMember(guildID, userID)
}

func (p *sessionPlatform) ChannelPermissions(userID, channelID string) (int64, error) {
	return p.dg.UserChannelPermissions(userID, channelID)
}

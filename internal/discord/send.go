package discord

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	maxMessageLen    = 2000
	newlineSearchLen = 200
	spaceSearchLen   = 100

	shutdownGrace = 10 * time.Second
)

// Send sends content to a channel, splitting messages that exceed the
// platform limit. Over-long content breaks preferentially at a newline
// near the limit, then at a space, then hard. The first sent message is
// returned.
func (b *Bot) Send(channelID, content string) (*discordgo.Message, error) {
	runes := []rune(content)
	if len(runes) <= maxMessageLen {
		return b.dg.ChannelMessageSend(channelID, content)
	}

	piece, remainder := splitPieces(runes)

	msg, err := b.dg.ChannelMessageSend(channelID, piece)
	if err != nil {
		return nil, err
	}
	if _, err := b.Send(channelID, remainder); err != nil {
		return msg, err
	}
	return msg, nil
}

// SendDM sends a direct message to a user.
func (b *Bot) SendDM(userID, content string) (*discordgo.Message, error) {
	ch, err := b.dg.UserChannelCreate(userID)
	if err != nil {
		return nil, err
	}
	return b.Send(ch.ID, content)
}

// Message fetches a message by channel and ID.
func (b *Bot) Message(channelID, messageID string) (*discordgo.Message, error) {
	return b.dg.ChannelMessage(channelID, messageID)
}

// Edit replaces a message's content.
func (b *Bot) Edit(channelID, messageID, content string) error {
	_, err := b.dg.ChannelMessageEdit(channelID, messageID, content)
	return err
}

// Delete removes a message.
func (b *Bot) Delete(channelID, messageID string) error {
	return b.dg.ChannelMessageDelete(channelID, messageID)
}

// splitPieces cuts one maximally sized leading piece off runes, preferring
// a newline within the last newlineSearchLen characters of the cut, then a
// space within the last spaceSearchLen.
func splitPieces(runes []rune) (string, string) {
	piece := string(runes[:maxMessageLen])

	if idx := strings.LastIndex(tail(piece, newlineSearchLen), "\n"); idx >= 0 {
		piece = piece[:len(piece)-len(tail(piece, newlineSearchLen))+idx]
	} else if idx := strings.LastIndex(tail(piece, spaceSearchLen), " "); idx >= 0 {
		piece = piece[:len(piece)-len(tail(piece, spaceSearchLen))+idx]
	}

	return piece, string(runes)[len(piece):]
}

// tail returns the last n bytes of s (all of s when shorter).
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

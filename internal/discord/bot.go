// Package discord wires the command core to the Discord gateway: session
// lifecycle, mention-prefix parsing, permission resolution and dispatch.
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/config"
	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

// Bot is the Discord gateway collaborator. It implements command.Messenger.
type Bot struct {
	cfg      *config.Config
	dg       *discordgo.Session
	store    *storage.Store
	registry *command.Registry
	resolver *levels.Resolver

	runCtx context.Context
}

// New creates the bot, its command registry and its permission resolver.
// Command handlers are registered against Registry() before Run.
func New(cfg *config.Config, store *storage.Store) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		cfg:   cfg,
		dg:    dg,
		store: store,
	}
	b.registry = command.New(b, store, store)
	b.resolver = &levels.Resolver{
		Owners:   cfg.OwnerIDs,
		Store:    store,
		Platform: &sessionPlatform{dg: dg},
	}

	return b, nil
}

// Registry returns the command registry for startup registration.
func (b *Bot) Registry() *command.Registry { return b.registry }

// Resolver returns the permission resolver.
func (b *Bot) Resolver() *levels.Resolver { return b.resolver }

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session { return b.dg }

// Run opens the gateway connection and blocks until ctx is cancelled,
// then drains in-flight handlers and closes the session.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	b.dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, draining handlers")

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := b.registry.Shutdown(drainCtx); err != nil {
		log.Warn().Err(err).Msg("handlers still running at shutdown deadline")
	}

	return b.dg.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("connected")
}

// onMessageCreate parses inbound messages into command text: content
// after a leading mention of the bot, or the whole content in a private
// conversation. Anything else is not a command and is ignored.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	channel := b.channel(m.ChannelID)

	text, ok := b.commandText(s, m, channel)
	if !ok {
		return
	}

	ctx := b.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	level := b.resolver.Resolve(ctx, m.Author, channel)
	b.registry.Dispatch(ctx, s, m, text, level)
}

func (b *Bot) commandText(s *discordgo.Session, m *discordgo.MessageCreate, channel *discordgo.Channel) (string, bool) {
	botID := s.State.User.ID
	for _, prefix := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if strings.HasPrefix(m.Content, prefix) {
			return strings.TrimLeft(m.Content[len(prefix):], " \t"), true
		}
	}

	if channel != nil && (channel.Type == discordgo.ChannelTypeDM || channel.Type == discordgo.ChannelTypeGroupDM) {
		return m.Content, true
	}

	return "", false
}

// channel looks a channel up in state first, falling back to the API.
func (b *Bot) channel(channelID string) *discordgo.Channel {
	if ch, err := b.dg.State.Channel(channelID); err == nil {
		return ch
	}
	ch, err := b.dg.Channel(channelID)
	if err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to fetch channel")
		return nil
	}
	return ch
}

// levbot is a Discord bot that announces Twitch live streams and is
// administered entirely through chat commands.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Levtastic/LevBot/internal/command/admins"
	"github.com/Levtastic/LevBot/internal/command/alerts"
	"github.com/Levtastic/LevBot/internal/command/core"
	"github.com/Levtastic/LevBot/internal/command/models"
	"github.com/Levtastic/LevBot/internal/command/users"
	"github.com/Levtastic/LevBot/internal/config"
	"github.com/Levtastic/LevBot/internal/console"
	"github.com/Levtastic/LevBot/internal/discord"
	"github.com/Levtastic/LevBot/internal/logging"
	"github.com/Levtastic/LevBot/internal/storage"
	"github.com/Levtastic/LevBot/internal/twitch"
	"github.com/Levtastic/LevBot/pkg/jobmgr"
)

const version = "2.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bot exited")
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logging.Setup(cfg.LogDirectory, cfg.LogLevel)
	log.Info().Str("version", version).Msg("starting levbot")

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	bot, err := discord.New(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := bot.Registry()
	core.Register(reg, cancel)
	alerts.Register(reg)
	users.Register(reg)
	admins.Register(reg)
	models.Register(reg)

	jobs := jobmgr.NewManager(func(msg string) {
		log.Info().Msg(msg)
	})

	if cfg.TwitchEnabled() {
		client := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret)
		poller := twitch.NewPoller(store, bot, client, cfg.TwitchPollInterval)
		if err := jobs.Start(ctx, "twitch-poller", poller.Run); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("Twitch credentials not configured, stream alerts disabled")
	}

	if err := jobs.Start(ctx, "console", console.New(cancel).Run); err != nil {
		return err
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	err = bot.Run(ctx)

	jobs.StopAll()
	return err
}

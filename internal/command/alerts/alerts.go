// Package alerts provides the stream alert commands: subscribing a
// channel to a streamer's live announcements and managing those
// subscriptions.
package alerts

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

// Register installs the alert commands. "add alert" is deliberately open
// to regular users; the rest default to server bot admins.
func Register(r *command.Registry) {
	r.Handle("add alert", command.Handler{
		Func:  addAlert,
		Level: levels.User,
		Params: []command.Param{
			command.Required("username"),
			command.Required("channel_name"),
			command.Optional("template"),
		},
		Description: "Announce a streamer's live streams in a channel (\"here\" for this one).",
	})
	r.Handle("edit alert", command.Handler{
		Func:        editAlert,
		Description: "How to change an existing alert.",
	})
	r.Handle("remove alert", command.Handler{
		Func: removeAlert,
		Params: []command.Param{
			command.Required("username"),
			command.Required("channel_name"),
		},
		Description: "Stop announcing a streamer in a channel.",
	})
	r.Handle("list alerts", command.Handler{
		Func: listAlerts,
		Params: []command.Param{
			command.Optional("filter"),
		},
		Description: "Show configured stream alerts.",
	})
}

func addAlert(ctx *command.Context, args command.Args) error {
	username := strings.ToLower(args.Get("username"))

	channelID, err := resolveChannel(ctx, args.Get("channel_name"))
	if err != nil {
		return err
	}

	streamer, err := ctx.Store.StreamerByUsername(ctx, username)
	if err != nil {
		return err
	}
	if streamer == nil {
		streamer = &storage.Streamer{Username: username}
		if err := ctx.Store.SaveStreamer(ctx, streamer); err != nil {
			return err
		}
	}

	existing, err := ctx.Store.StreamerChannelBy(ctx, streamer.ID, channelID)
	if err != nil {
		return err
	}
	if existing != nil {
		return command.Errorf("`%s` is already announced in <#%s>.", username, channelID)
	}

	sc := &storage.StreamerChannel{
		StreamerID: streamer.ID,
		ChannelDID: channelID,
		Template:   args.Get("template"),
	}
	if err := ctx.Store.SaveStreamerChannel(ctx, sc); err != nil {
		return err
	}

	return ctx.Reply("Alert added: `%s` will be announced in <#%s>.", username, channelID)
}

func editAlert(ctx *command.Context, _ command.Args) error {
	return ctx.Reply("Alerts have no editable fields; `remove alert` and `add alert` it again with the settings you want.")
}

func removeAlert(ctx *command.Context, args command.Args) error {
	username := strings.ToLower(args.Get("username"))

	channelID, err := resolveChannel(ctx, args.Get("channel_name"))
	if err != nil {
		return err
	}

	streamer, err := ctx.Store.StreamerByUsername(ctx, username)
	if err != nil {
		return err
	}
	if streamer == nil {
		return command.Errorf("I don't know a streamer called `%s`.", username)
	}

	sc, err := ctx.Store.StreamerChannelBy(ctx, streamer.ID, channelID)
	if err != nil {
		return err
	}
	if sc == nil {
		return command.Errorf("`%s` is not announced in <#%s>.", username, channelID)
	}

	if err := ctx.Store.DeleteStreamerChannel(ctx, sc); err != nil {
		return err
	}

	// The streamer record only exists to be announced somewhere.
	remaining, err := ctx.Store.ChannelsForStreamer(ctx, streamer.ID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := ctx.Store.DeleteStreamer(ctx, streamer); err != nil {
			return err
		}
	}

	return ctx.Reply("Alert removed: `%s` is no longer announced in <#%s>.", username, channelID)
}

func listAlerts(ctx *command.Context, args command.Args) error {
	filter := strings.ToLower(args.Get("filter"))

	streamers, err := ctx.Store.ListStreamers(ctx)
	if err != nil {
		return err
	}

	var lines []string
	for _, st := range streamers {
		if filter != "" && !strings.Contains(st.Username, filter) {
			continue
		}
		channels, err := ctx.Store.ChannelsForStreamer(ctx, st.ID)
		if err != nil {
			return err
		}
		for _, sc := range channels {
			line := fmt.Sprintf("`%s` in <#%s>", st.Username, sc.ChannelDID)
			if sc.Template != "" {
				line += fmt.Sprintf(" (template: `%s`)", sc.Template)
			}
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return ctx.Reply("No stream alerts configured.")
	}
	return ctx.Reply("%s", strings.Join(lines, "\n"))
}

// resolveChannel turns a channel argument into a channel ID: "here" means
// the channel the command came from, otherwise the name (with or without
// a leading #, or a <#id> mention) is looked up in the current guild.
func resolveChannel(ctx *command.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "here") {
		return ctx.Message.ChannelID, nil
	}

	if strings.HasPrefix(name, "<#") && strings.HasSuffix(name, ">") {
		return strings.TrimSuffix(strings.TrimPrefix(name, "<#"), ">"), nil
	}

	name = strings.TrimPrefix(name, "#")
	if ctx.Message.GuildID == "" {
		return "", command.Errorf("I can only look up `%s` inside a server; use `here` or a channel mention.", name)
	}

	guild, err := ctx.Session.State.Guild(ctx.Message.GuildID)
	if err != nil {
		return "", err
	}
	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, name) {
			return ch.ID, nil
		}
	}

	return "", command.Errorf("I can't find a channel called `%s` here.", name)
}

// Package core provides the built-in commands every installation gets:
// help, invite and shutdown.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/levels"
)

// Register installs the built-in commands. shutdown cancels the bot's
// root context.
func Register(r *command.Registry, shutdown context.CancelFunc) {
	r.Handle("help", command.Handler{
		Func:  helpFunc(r),
		Level: levels.User,
		Params: []command.Param{
			command.Optional("command"),
		},
		Description: "Show the commands you can use, or details of one command.",
	})
	r.Handle("invite", command.Handler{
		Func:        invite,
		Level:       levels.User,
		Description: "Get a link that invites me to your server.",
	})
	r.Handle("shutdown", command.Handler{
		Func: func(ctx *command.Context, _ command.Args) error {
			if err := ctx.Reply("Shutting down. Goodbye!"); err != nil {
				return err
			}
			shutdown()
			return nil
		},
		Level:       levels.BotOwner,
		Description: "Stop the bot gracefully.",
	})
}

// helpFunc walks the registry exactly the way dispatch does, so help
// only ever shows commands the asking user is allowed to run.
func helpFunc(r *command.Registry) command.HandlerFunc {
	return func(ctx *command.Context, args command.Args) error {
		query := strings.TrimSpace(args.Get("command"))

		node, remainder := r.Find(ctx, query, ctx.Level)
		consumed := strings.TrimSpace(query[:len(query)-len(remainder)])

		if query != "" && consumed == "" {
			return command.Errorf("I don't know a command called `%s` that you can use.", query)
		}

		text := render(node, consumed, ctx.Level)
		if err := ctx.DM("%s", text); err != nil {
			return err
		}
		if ctx.Message.GuildID != "" {
			return ctx.Reply("I've sent you a DM.")
		}
		return nil
	}
}

// render describes one trie node for a user at the given level: the
// handlers registered there and the subcommands the user may descend
// into.
func render(node *command.Node, prefix string, level levels.Level) string {
	var b strings.Builder

	if prefix == "" {
		b.WriteString("Commands you can use:\n")
	}

	for _, h := range node.Handlers() {
		if h.Level > level {
			continue
		}
		fmt.Fprintf(&b, "`%s`", h.Syntax())
		if h.Description != "" {
			b.WriteString(" - ")
			b.WriteString(h.Description)
		}
		b.WriteString("\n")
	}

	var subs []string
	for name, child := range node.Children() {
		if child.UserLevel() > level {
			continue
		}
		full := name
		if prefix != "" {
			full = prefix + " " + name
		}
		subs = append(subs, "`"+full+"`")
	}
	sort.Strings(subs)

	if len(subs) > 0 {
		if prefix != "" {
			b.WriteString("Subcommands: ")
		}
		b.WriteString(strings.Join(subs, ", "))
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return "There's nothing I can tell you about that command."
	}
	return strings.TrimRight(b.String(), "\n")
}

func invite(ctx *command.Context, _ command.Args) error {
	appID := ctx.Session.State.User.ID
	return ctx.DM("Invite me to your server with this link:\nhttps://discord.com/api/oauth2/authorize?client_id=%s&scope=bot&permissions=0", appID)
}

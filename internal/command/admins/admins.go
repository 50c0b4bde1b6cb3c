// Package admins provides the global bot admin commands.
package admins

import (
	"fmt"
	"strings"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/levels"
)

// Register installs the admin commands at global-bot-admin level.
func Register(r *command.Registry) {
	r.Handle("add admin", command.Handler{
		Func:  addAdmin,
		Level: levels.GlobalBotAdmin,
		Params: []command.Param{
			command.Required("user"),
		},
		Description: "Make a user a global bot admin.",
	})
	r.Handle("remove admin", command.Handler{
		Func:  removeAdmin,
		Level: levels.GlobalBotAdmin,
		Params: []command.Param{
			command.Required("user"),
		},
		Description: "Revoke a user's global bot admin.",
	})
	r.Handle("list admins", command.Handler{
		Func:  listAdmins,
		Level: levels.GlobalBotAdmin,
		Params: []command.Param{
			command.Optional("filter"),
		},
		Description: "Show global bot admins.",
	})
}

func addAdmin(ctx *command.Context, args command.Args) error {
	userDID, ok := command.ParseUserMention(args.Get("user"))
	if !ok {
		return command.Errorf("I don't recognise `%s` as a user; mention them or give their ID.", args.Get("user"))
	}

	user, err := ctx.Store.EnsureUser(ctx, userDID)
	if err != nil {
		return err
	}
	if user.GlobalAdmin {
		return command.Errorf("<@%s> is already a global bot admin.", userDID)
	}

	user.GlobalAdmin = true
	if err := ctx.Store.SaveUser(ctx, user); err != nil {
		return err
	}
	return ctx.Reply("Done: <@%s> is now a global bot admin.", userDID)
}

func removeAdmin(ctx *command.Context, args command.Args) error {
	userDID, ok := command.ParseUserMention(args.Get("user"))
	if !ok {
		return command.Errorf("I don't recognise `%s` as a user; mention them or give their ID.", args.Get("user"))
	}

	user, err := ctx.Store.UserByDID(ctx, userDID)
	if err != nil {
		return err
	}
	if user == nil || !user.GlobalAdmin {
		return command.Errorf("<@%s> is not a global bot admin.", userDID)
	}

	user.GlobalAdmin = false
	if err := ctx.Store.SaveUser(ctx, user); err != nil {
		return err
	}

	// Drop the row entirely when nothing else is recorded about them.
	if !user.Blacklisted {
		servers, err := ctx.Store.UserServersFor(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(servers) == 0 {
			if err := ctx.Store.DeleteUser(ctx, user); err != nil {
				return err
			}
		}
	}

	return ctx.Reply("Done: <@%s> is no longer a global bot admin.", userDID)
}

func listAdmins(ctx *command.Context, args command.Args) error {
	filter := strings.TrimSpace(args.Get("filter"))

	users, err := ctx.Store.ListUsers(ctx)
	if err != nil {
		return err
	}

	var lines []string
	for _, u := range users {
		if !u.GlobalAdmin {
			continue
		}
		if filter != "" && !strings.Contains(u.UserDID, filter) {
			continue
		}
		lines = append(lines, fmt.Sprintf("<@%s> (`%s`)", u.UserDID, u.UserDID))
	}

	if len(lines) == 0 {
		return ctx.Reply("No global bot admins configured.")
	}
	return ctx.Reply("%s", strings.Join(lines, "\n"))
}

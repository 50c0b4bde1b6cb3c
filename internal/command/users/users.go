// Package users provides the per-server user management commands:
// granting and revoking the bot-admin and blacklist flags that feed the
// permission resolver.
package users

import (
	"fmt"
	"strings"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

// Register installs the user commands at server-owner level.
func Register(r *command.Registry) {
	r.Handle("add user", command.Handler{
		Func:  addUser,
		Level: levels.ServerOwner,
		Params: []command.Param{
			command.Required("user"),
			command.Required("flag"),
			command.Optional("server"),
		},
		Description: "Give a user the `admin` or `blacklist` flag on a server.",
	})
	r.Handle("remove user", command.Handler{
		Func:  removeUser,
		Level: levels.ServerOwner,
		Params: []command.Param{
			command.Required("user"),
			command.Required("flag"),
			command.Optional("server"),
		},
		Description: "Take the `admin` or `blacklist` flag away from a user on a server.",
	})
	r.Handle("list users", command.Handler{
		Func:  listUsers,
		Level: levels.ServerOwner,
		Params: []command.Param{
			command.Optional("server"),
		},
		Description: "Show users with flags on a server.",
	})
}

func addUser(ctx *command.Context, args command.Args) error {
	userDID, serverDID, flag, err := parseTarget(ctx, args)
	if err != nil {
		return err
	}

	user, err := ctx.Store.EnsureUser(ctx, userDID)
	if err != nil {
		return err
	}
	us, err := ctx.Store.EnsureUserServer(ctx, user.ID, serverDID)
	if err != nil {
		return err
	}

	switch flag {
	case "admin":
		if us.Admin {
			return command.Errorf("<@%s> is already an admin on that server.", userDID)
		}
		us.Admin = true
	case "blacklist":
		if us.Blacklisted {
			return command.Errorf("<@%s> is already blacklisted on that server.", userDID)
		}
		us.Blacklisted = true
	}

	if err := ctx.Store.SaveUserServer(ctx, us); err != nil {
		return err
	}
	return ctx.Reply("Done: <@%s> now has the `%s` flag on that server.", userDID, flag)
}

func removeUser(ctx *command.Context, args command.Args) error {
	userDID, serverDID, flag, err := parseTarget(ctx, args)
	if err != nil {
		return err
	}

	user, err := ctx.Store.UserByDID(ctx, userDID)
	if err != nil {
		return err
	}
	var us *storage.UserServer
	if user != nil {
		us, err = ctx.Store.UserServerFor(ctx, user.ID, serverDID)
		if err != nil {
			return err
		}
	}
	if us == nil {
		return command.Errorf("<@%s> has no flags on that server.", userDID)
	}

	switch flag {
	case "admin":
		if !us.Admin {
			return command.Errorf("<@%s> is not an admin on that server.", userDID)
		}
		us.Admin = false
	case "blacklist":
		if !us.Blacklisted {
			return command.Errorf("<@%s> is not blacklisted on that server.", userDID)
		}
		us.Blacklisted = false
	}

	if err := saveOrCleanup(ctx, user, us); err != nil {
		return err
	}
	return ctx.Reply("Done: <@%s> no longer has the `%s` flag on that server.", userDID, flag)
}

// saveOrCleanup persists the flag change and removes records that no
// longer say anything: a user_servers row with both flags clear goes
// away, and so does a users row left with no flags and no server rows.
func saveOrCleanup(ctx *command.Context, user *storage.User, us *storage.UserServer) error {
	if us.Admin || us.Blacklisted {
		return ctx.Store.SaveUserServer(ctx, us)
	}
	if err := ctx.Store.DeleteUserServer(ctx, us); err != nil {
		return err
	}

	if user.Blacklisted || user.GlobalAdmin {
		return nil
	}
	remaining, err := ctx.Store.UserServersFor(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return ctx.Store.DeleteUser(ctx, user)
	}
	return nil
}

func listUsers(ctx *command.Context, args command.Args) error {
	serverDID, err := resolveServer(ctx, args.Get("server"))
	if err != nil {
		return err
	}

	users, err := ctx.Store.ListUsers(ctx)
	if err != nil {
		return err
	}

	var lines []string
	for _, u := range users {
		us, err := ctx.Store.UserServerFor(ctx, u.ID, serverDID)
		if err != nil {
			return err
		}
		if us == nil {
			continue
		}
		var flags []string
		if us.Admin {
			flags = append(flags, "admin")
		}
		if us.Blacklisted {
			flags = append(flags, "blacklist")
		}
		lines = append(lines, fmt.Sprintf("<@%s>: %s", u.UserDID, strings.Join(flags, ", ")))
	}

	if len(lines) == 0 {
		return ctx.Reply("No users have flags on that server.")
	}
	return ctx.Reply("%s", strings.Join(lines, "\n"))
}

func parseTarget(ctx *command.Context, args command.Args) (userDID, serverDID, flag string, err error) {
	userDID, ok := command.ParseUserMention(args.Get("user"))
	if !ok {
		return "", "", "", command.Errorf("I don't recognise `%s` as a user; mention them or give their ID.", args.Get("user"))
	}

	flag = strings.ToLower(args.Get("flag"))
	if flag != "admin" && flag != "blacklist" {
		return "", "", "", command.Errorf("The flag must be `admin` or `blacklist`, not `%s`.", args.Get("flag"))
	}

	serverDID, err = resolveServer(ctx, args.Get("server"))
	return userDID, serverDID, flag, err
}

// resolveServer defaults to the server the command came from.
func resolveServer(ctx *command.Context, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg != "" {
		return arg, nil
	}
	if ctx.Message.GuildID == "" {
		return "", command.Errorf("Give a server ID when using this command outside a server.")
	}
	return ctx.Message.GuildID, nil
}

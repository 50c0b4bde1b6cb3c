// Package models provides bot-owner commands for raw record access to
// every stored model, including command aliases.
package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Levtastic/LevBot/internal/command"
	"github.com/Levtastic/LevBot/internal/levels"
	"github.com/Levtastic/LevBot/internal/storage"
)

// Register installs add/edit/remove/list commands for every model the
// storage layer exposes, at bot-owner level. The model name is part of
// the command path, so `add Streamer username = somebody` inserts a row.
func Register(r *command.Registry) {
	for _, model := range storage.Models() {
		model := model

		r.Handle("add "+model, command.Handler{
			Func:  func(ctx *command.Context, args command.Args) error { return addRecord(ctx, model, args) },
			Level: levels.BotOwner,
			Params: []command.Param{
				command.Required("fields"),
			},
			Description: "Insert a " + model + " record: `field = value, field = value`.",
		})
		r.Handle("edit "+model, command.Handler{
			Func:  func(ctx *command.Context, args command.Args) error { return editRecord(ctx, model, args) },
			Level: levels.BotOwner,
			Params: []command.Param{
				command.Required("id"),
				command.Required("fields"),
			},
			Description: "Update a " + model + " record by ID.",
		})
		r.Handle("remove "+model, command.Handler{
			Func:  func(ctx *command.Context, args command.Args) error { return removeRecord(ctx, model, args) },
			Level: levels.BotOwner,
			Params: []command.Param{
				command.Required("id"),
			},
			Description: "Delete a " + model + " record by ID.",
		})
		r.Handle("list "+model, command.Handler{
			Func:  func(ctx *command.Context, args command.Args) error { return listRecords(ctx, model, args) },
			Level: levels.BotOwner,
			Params: []command.Param{
				command.Optional("filters"),
			},
			Description: "List " + model + " records, optionally filtered: `field = value, ...`.",
		})
	}
}

func table(ctx *command.Context, model string) (*storage.Table, error) {
	t, ok := ctx.Store.Table(model)
	if !ok {
		return nil, command.Errorf("Unknown model `%s`.", model)
	}
	return t, nil
}

func addRecord(ctx *command.Context, model string, args command.Args) error {
	t, err := table(ctx, model)
	if err != nil {
		return err
	}
	values, err := parseFields(args.Get("fields"))
	if err != nil {
		return err
	}

	id, err := t.Insert(ctx, values)
	if err != nil {
		return userError(err)
	}
	return ctx.Reply("Inserted %s `%d`.", model, id)
}

func editRecord(ctx *command.Context, model string, args command.Args) error {
	t, err := table(ctx, model)
	if err != nil {
		return err
	}
	id, err := parseID(args.Get("id"))
	if err != nil {
		return err
	}
	values, err := parseFields(args.Get("fields"))
	if err != nil {
		return err
	}

	if err := t.Update(ctx, id, values); err != nil {
		return userError(err)
	}
	return ctx.Reply("Updated %s `%d`.", model, id)
}

func removeRecord(ctx *command.Context, model string, args command.Args) error {
	t, err := table(ctx, model)
	if err != nil {
		return err
	}
	id, err := parseID(args.Get("id"))
	if err != nil {
		return err
	}

	if err := t.Delete(ctx, id); err != nil {
		return userError(err)
	}
	return ctx.Reply("Deleted %s `%d`.", model, id)
}

func listRecords(ctx *command.Context, model string, args command.Args) error {
	t, err := table(ctx, model)
	if err != nil {
		return err
	}

	filters := map[string]string{}
	if raw := strings.TrimSpace(args.Get("filters")); raw != "" {
		filters, err = parseFields(raw)
		if err != nil {
			return err
		}
	}

	records, err := t.List(ctx, filters)
	if err != nil {
		return userError(err)
	}
	if len(records) == 0 {
		return ctx.Reply("No %s records found.", model)
	}

	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.String()
	}
	return ctx.Reply("%s", strings.Join(lines, "\n"))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, command.Errorf("`%s` is not a record ID.", strings.TrimSpace(s))
	}
	return id, nil
}

// parseFields parses `field = value, field = value` pairs. Values may not
// contain commas; raw SQL access is an owner-only escape hatch, not a
// query language.
func parseFields(s string) (map[string]string, error) {
	values := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, command.Errorf("`%s` is not a `field = value` pair.", strings.TrimSpace(pair))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, command.Errorf("`%s` is missing a field name.", strings.TrimSpace(pair))
		}
		values[name] = strings.TrimSpace(value)
	}
	if len(values) == 0 {
		return nil, command.Errorf("No `field = value` pairs given.")
	}
	return values, nil
}

// userError surfaces unknown-field mistakes to the user; anything else
// stays an internal error.
func userError(err error) error {
	var unknown *storage.ErrUnknownField
	if errors.As(err, &unknown) {
		return command.Errorf("%s", unknown.Error())
	}
	return err
}

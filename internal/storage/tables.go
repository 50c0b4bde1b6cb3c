package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownField is returned when a filter or value names a field the
// model does not have.
type ErrUnknownField struct {
	Model string
	Field string
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unrecognised field %q on model %q", e.Field, e.Model)
}

// tableDefs maps model names to their table and editable fields. The id
// column is managed by the store and never exposed as a field. This
// explicit mapping replaces dynamic query-method generation: every verb
// the gateway supports is a typed method below.
var tableDefs = map[string]struct {
	table  string
	fields []string
}{
	"User":            {"users", []string{"user_did", "blacklisted", "global_admin"}},
	"UserServer":      {"user_servers", []string{"user_id", "server_did", "admin", "blacklisted"}},
	"Streamer":        {"streamers", []string{"username"}},
	"StreamerChannel": {"streamer_channels", []string{"streamer_id", "channel_did", "template"}},
	"StreamerMessage": {"streamer_messages", []string{"streamer_id", "channel_did", "message_did"}},
	"CommandAlias":    {"command_aliases", []string{"command", "alias"}},
}

// Models returns the model names the table gateway exposes, sorted.
func Models() []string {
	out := make([]string, 0, len(tableDefs))
	for name := range tableDefs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Table is an explicit query gateway for one model: equality filters only,
// all values travel as strings.
type Table struct {
	store  *Store
	model  string
	table  string
	fields []string
}

// Table returns the gateway for the named model.
func (s *Store) Table(model string) (*Table, bool) {
	def, ok := tableDefs[model]
	if !ok {
		return nil, false
	}
	return &Table{store: s, model: model, table: def.table, fields: def.fields}, true
}

// Model returns the model name.
func (t *Table) Model() string { return t.model }

// Fields returns the editable field names in declaration order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

func (t *Table) hasField(name string) bool {
	for _, f := range t.fields {
		if f == name {
			return true
		}
	}
	return false
}

// whereClause builds an AND-joined equality clause from filters, with
// field names validated against the model.
func (t *Table) whereClause(filters map[string]string) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		if !t.hasField(name) {
			return "", nil, &ErrUnknownField{Model: t.model, Field: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	conds := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		conds = append(conds, name+" = ?")
		args = append(args, filters[name])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// Record is one row of a model as seen through the gateway.
type Record struct {
	ID     int64
	Model  string
	Fields []string
	Values map[string]string
}

// String renders the record for listing, mirroring the help and list
// output format of the model commands.
func (r Record) String() string {
	parts := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		parts = append(parts, fmt.Sprintf("`%s` = `%s`", f, r.Values[f]))
	}
	return fmt.Sprintf("%s `(%d)`: %s", r.Model, r.ID, strings.Join(parts, ", "))
}

// List returns the records matching all filters, every record when
// filters is empty.
func (t *Table) List(ctx context.Context, filters map[string]string) ([]Record, error) {
	where, args, err := t.whereClause(filters)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, %s FROM %s%s ORDER BY id",
		strings.Join(t.fields, ", "), t.table, where)

	rows, err := t.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.model, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{Model: t.model, Fields: t.Fields(), Values: make(map[string]string, len(t.fields))}

		dest := make([]any, len(t.fields)+1)
		dest[0] = &rec.ID
		values := make([]string, len(t.fields))
		for i := range values {
			dest[i+1] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, f := range t.fields {
			rec.Values[f] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert creates a record from field values; unnamed fields keep their
// schema defaults.
func (t *Table) Insert(ctx context.Context, values map[string]string) (int64, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		if !t.hasField(name) {
			return 0, &ErrUnknownField{Model: t.model, Field: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	marks := make([]string, 0, len(names))
	for _, name := range names {
		args = append(args, values[name])
		marks = append(marks, "?")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.table, strings.Join(names, ", "), strings.Join(marks, ", "))

	id, err := t.store.insert(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", t.model, err)
	}
	return id, nil
}

// Update assigns field values on the record with the given ID.
func (t *Table) Update(ctx context.Context, id int64, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		if !t.hasField(name) {
			return &ErrUnknownField{Model: t.model, Field: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, values[name])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.table, strings.Join(sets, ", "))
	if _, err := t.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", t.model, err)
	}
	return nil
}

// Delete removes the record with the given ID.
func (t *Table) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.table)
	if _, err := t.store.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.model, err)
	}
	return nil
}

package storage

import "context"

// CommandForAlias returns the command a registered alias maps to. When the
// same alias string has been registered more than once, the most recently
// inserted row wins. Implements the command package's AliasSource.
func (s *Store) CommandForAlias(ctx context.Context, alias string) (string, bool) {
	row := s.db.QueryRowContext(ctx,
		`SELECT command FROM command_aliases WHERE alias = ? ORDER BY id DESC LIMIT 1`, alias)

	var command string
	if err := row.Scan(&command); err != nil {
		return "", false
	}
	return command, true
}

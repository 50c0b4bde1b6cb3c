package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Levtastic/LevBot/internal/levels"
)

// User is a known platform user with globally scoped flags.
type User struct {
	ID          int64
	UserDID     string
	Blacklisted bool
	GlobalAdmin bool
}

// UserServer holds a user's per-server flags.
type UserServer struct {
	ID          int64
	UserID      int64
	ServerDID   string
	Admin       bool
	Blacklisted bool
}

// UserByDID returns the user with the given platform ID, or nil when none
// exists.
func (s *Store) UserByDID(ctx context.Context, userDID string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_did, blacklisted, global_admin FROM users WHERE user_did = ?`, userDID)

	var u User
	err := row.Scan(&u.ID, &u.UserDID, &u.Blacklisted, &u.GlobalAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// EnsureUser returns the user with the given platform ID, creating the
// record on first reference.
func (s *Store) EnsureUser(ctx context.Context, userDID string) (*User, error) {
	u, err := s.UserByDID(ctx, userDID)
	if err != nil || u != nil {
		return u, err
	}

	u = &User{UserDID: userDID}
	if err := s.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SaveUser inserts the user when it has no ID yet, otherwise updates it.
func (s *Store) SaveUser(ctx context.Context, u *User) error {
	if u.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO users (user_did, blacklisted, global_admin) VALUES (?, ?, ?)`,
			u.UserDID, u.Blacklisted, u.GlobalAdmin)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		u.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET user_did = ?, blacklisted = ?, global_admin = ? WHERE id = ?`,
		u.UserDID, u.Blacklisted, u.GlobalAdmin, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes the user and its per-server records. The parent owns
// the cascade.
func (s *Store) DeleteUser(ctx context.Context, u *User) error {
	if u.ID == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_servers WHERE user_id = ?`, u.ID); err != nil {
		return fmt.Errorf("failed to delete user servers: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	u.ID = 0
	return nil
}

// ListUsers returns all known users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_did, blacklisted, global_admin FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.UserDID, &u.Blacklisted, &u.GlobalAdmin); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserServerFor returns the per-server record for a user, or nil.
func (s *Store) UserServerFor(ctx context.Context, userID int64, serverDID string) (*UserServer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, server_did, admin, blacklisted FROM user_servers
		 WHERE user_id = ? AND server_did = ?`, userID, serverDID)

	var us UserServer
	err := row.Scan(&us.ID, &us.UserID, &us.ServerDID, &us.Admin, &us.Blacklisted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user server: %w", err)
	}
	return &us, nil
}

// EnsureUserServer returns the per-server record for a user, creating it
// on first reference.
func (s *Store) EnsureUserServer(ctx context.Context, userID int64, serverDID string) (*UserServer, error) {
	us, err := s.UserServerFor(ctx, userID, serverDID)
	if err != nil || us != nil {
		return us, err
	}

	us = &UserServer{UserID: userID, ServerDID: serverDID}
	if err := s.SaveUserServer(ctx, us); err != nil {
		return nil, err
	}
	return us, nil
}

// SaveUserServer inserts or updates a per-server record.
func (s *Store) SaveUserServer(ctx context.Context, us *UserServer) error {
	if us.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO user_servers (user_id, server_did, admin, blacklisted) VALUES (?, ?, ?, ?)`,
			us.UserID, us.ServerDID, us.Admin, us.Blacklisted)
		if err != nil {
			return fmt.Errorf("failed to insert user server: %w", err)
		}
		us.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE user_servers SET user_id = ?, server_did = ?, admin = ?, blacklisted = ? WHERE id = ?`,
		us.UserID, us.ServerDID, us.Admin, us.Blacklisted, us.ID)
	if err != nil {
		return fmt.Errorf("failed to update user server: %w", err)
	}
	return nil
}

// DeleteUserServer removes a per-server record.
func (s *Store) DeleteUserServer(ctx context.Context, us *UserServer) error {
	if us.ID == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_servers WHERE id = ?`, us.ID); err != nil {
		return fmt.Errorf("failed to delete user server: %w", err)
	}
	us.ID = 0
	return nil
}

// UserServersFor returns all per-server records for a user.
func (s *Store) UserServersFor(ctx context.Context, userID int64) ([]UserServer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, server_did, admin, blacklisted FROM user_servers WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user servers: %w", err)
	}
	defer rows.Close()

	var out []UserServer
	for rows.Next() {
		var us UserServer
		if err := rows.Scan(&us.ID, &us.UserID, &us.ServerDID, &us.Admin, &us.Blacklisted); err != nil {
			return nil, err
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// UserFlags implements levels.Store.
func (s *Store) UserFlags(ctx context.Context, userDID string) (levels.UserFlags, bool) {
	u, err := s.UserByDID(ctx, userDID)
	if err != nil || u == nil {
		return levels.UserFlags{}, false
	}
	return levels.UserFlags{Blacklisted: u.Blacklisted, GlobalAdmin: u.GlobalAdmin}, true
}

// ServerFlags implements levels.Store.
func (s *Store) ServerFlags(ctx context.Context, userDID, serverDID string) (levels.ServerFlags, bool) {
	u, err := s.UserByDID(ctx, userDID)
	if err != nil || u == nil {
		return levels.ServerFlags{}, false
	}
	us, err := s.UserServerFor(ctx, u.ID, serverDID)
	if err != nil || us == nil {
		return levels.ServerFlags{}, false
	}
	return levels.ServerFlags{Admin: us.Admin, Blacklisted: us.Blacklisted}, true
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Streamer is a monitored broadcaster.
type Streamer struct {
	ID       int64
	Username string
}

// StreamerChannel is one channel where a streamer's alerts are posted.
type StreamerChannel struct {
	ID         int64
	StreamerID int64
	ChannelDID string
	Template   string
}

// StreamerMessage is a live alert message the bot currently maintains.
type StreamerMessage struct {
	ID         int64
	StreamerID int64
	ChannelDID string
	MessageDID string
}

// StreamAlert is the poller's working view: a streamer/channel pair plus
// the alert message currently posted there, if any.
type StreamAlert struct {
	StreamerID int64
	Username   string
	ChannelDID string
	Template   string

	MessageID  int64 // streamer_messages row, 0 when no message exists
	MessageDID string
}

// StreamerByUsername returns the streamer with the given (lowercased)
// username, or nil.
func (s *Store) StreamerByUsername(ctx context.Context, username string) (*Streamer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username FROM streamers WHERE username = ?`, username)

	var st Streamer
	err := row.Scan(&st.ID, &st.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query streamer: %w", err)
	}
	return &st, nil
}

// SaveStreamer inserts or updates a streamer.
func (s *Store) SaveStreamer(ctx context.Context, st *Streamer) error {
	if st.ID == 0 {
		id, err := s.insert(ctx, `INSERT INTO streamers (username) VALUES (?)`, st.Username)
		if err != nil {
			return fmt.Errorf("failed to insert streamer: %w", err)
		}
		st.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx, `UPDATE streamers SET username = ? WHERE id = ?`, st.Username, st.ID)
	if err != nil {
		return fmt.Errorf("failed to update streamer: %w", err)
	}
	return nil
}

// DeleteStreamer removes a streamer together with its channels and
// messages. The parent always owns the cascade.
func (s *Store) DeleteStreamer(ctx context.Context, st *Streamer) error {
	if st.ID == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM streamer_messages WHERE streamer_id = ?`, st.ID); err != nil {
		return fmt.Errorf("failed to delete streamer messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM streamer_channels WHERE streamer_id = ?`, st.ID); err != nil {
		return fmt.Errorf("failed to delete streamer channels: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM streamers WHERE id = ?`, st.ID); err != nil {
		return fmt.Errorf("failed to delete streamer: %w", err)
	}
	st.ID = 0
	return nil
}

// ListStreamers returns all streamers ordered by username.
func (s *Store) ListStreamers(ctx context.Context) ([]Streamer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username FROM streamers ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamers: %w", err)
	}
	defer rows.Close()

	var out []Streamer
	for rows.Next() {
		var st Streamer
		if err := rows.Scan(&st.ID, &st.Username); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StreamerChannelBy returns the channel record for a streamer/channel
// pair, or nil.
func (s *Store) StreamerChannelBy(ctx context.Context, streamerID int64, channelDID string) (*StreamerChannel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, streamer_id, channel_did, template FROM streamer_channels
		 WHERE streamer_id = ? AND channel_did = ?`, streamerID, channelDID)

	var sc StreamerChannel
	err := row.Scan(&sc.ID, &sc.StreamerID, &sc.ChannelDID, &sc.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query streamer channel: %w", err)
	}
	return &sc, nil
}

// ChannelsForStreamer returns all alert channels for a streamer.
func (s *Store) ChannelsForStreamer(ctx context.Context, streamerID int64) ([]StreamerChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, streamer_id, channel_did, template FROM streamer_channels
		 WHERE streamer_id = ? ORDER BY id`, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamer channels: %w", err)
	}
	defer rows.Close()

	var out []StreamerChannel
	for rows.Next() {
		var sc StreamerChannel
		if err := rows.Scan(&sc.ID, &sc.StreamerID, &sc.ChannelDID, &sc.Template); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// SaveStreamerChannel inserts or updates an alert channel.
func (s *Store) SaveStreamerChannel(ctx context.Context, sc *StreamerChannel) error {
	if sc.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO streamer_channels (streamer_id, channel_did, template) VALUES (?, ?, ?)`,
			sc.StreamerID, sc.ChannelDID, sc.Template)
		if err != nil {
			return fmt.Errorf("failed to insert streamer channel: %w", err)
		}
		sc.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE streamer_channels SET streamer_id = ?, channel_did = ?, template = ? WHERE id = ?`,
		sc.StreamerID, sc.ChannelDID, sc.Template, sc.ID)
	if err != nil {
		return fmt.Errorf("failed to update streamer channel: %w", err)
	}
	return nil
}

// DeleteStreamerChannel removes an alert channel and the alert messages
// posted in it.
func (s *Store) DeleteStreamerChannel(ctx context.Context, sc *StreamerChannel) error {
	if sc.ID == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM streamer_messages WHERE streamer_id = ? AND channel_did = ?`,
		sc.StreamerID, sc.ChannelDID); err != nil {
		return fmt.Errorf("failed to delete streamer messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM streamer_channels WHERE id = ?`, sc.ID); err != nil {
		return fmt.Errorf("failed to delete streamer channel: %w", err)
	}
	sc.ID = 0
	return nil
}

// SaveStreamerMessage inserts or updates an alert message record.
func (s *Store) SaveStreamerMessage(ctx context.Context, sm *StreamerMessage) error {
	if sm.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO streamer_messages (streamer_id, channel_did, message_did) VALUES (?, ?, ?)`,
			sm.StreamerID, sm.ChannelDID, sm.MessageDID)
		if err != nil {
			return fmt.Errorf("failed to insert streamer message: %w", err)
		}
		sm.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE streamer_messages SET streamer_id = ?, channel_did = ?, message_did = ? WHERE id = ?`,
		sm.StreamerID, sm.ChannelDID, sm.MessageDID, sm.ID)
	if err != nil {
		return fmt.Errorf("failed to update streamer message: %w", err)
	}
	return nil
}

// DeleteStreamerMessage removes an alert message record by row ID.
func (s *Store) DeleteStreamerMessage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM streamer_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete streamer message: %w", err)
	}
	return nil
}

// StreamAlerts returns every streamer/channel pair joined with the alert
// message currently posted there, for the poller to reconcile.
func (s *Store) StreamAlerts(ctx context.Context) ([]StreamAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.username, sc.channel_did, sc.template,
		       COALESCE(sm.id, 0), COALESCE(sm.message_did, '')
		FROM streamers st
		JOIN streamer_channels sc ON sc.streamer_id = st.id
		LEFT JOIN streamer_messages sm
		       ON sm.streamer_id = st.id AND sm.channel_did = sc.channel_did
		ORDER BY st.username, sc.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream alerts: %w", err)
	}
	defer rows.Close()

	var out []StreamAlert
	for rows.Next() {
		var a StreamAlert
		if err := rows.Scan(&a.StreamerID, &a.Username, &a.ChannelDID, &a.Template,
			&a.MessageID, &a.MessageDID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

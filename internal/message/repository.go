package message

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"chat-relay/internal/db"
)

type Repository struct {
	db *db.Database
}

func NewRepository(database *db.Database) *Repository {
	return &Repository{db: database}
}

// Save persists msg, assigning an id and a server timestamp when the
// client did not supply one. The destination invariant must already
// hold; Save re-checks it as a backstop.
func (r *Repository) Save(ctx context.Context, msg *Message) (*Message, error) {
	if err := msg.ValidateDestination(); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`INSERT INTO messages
        (id, sender_id, receiver_id, room_id, text, image, audio, video, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.Conn.ExecContext(ctx, query,
		msg.ID, msg.SenderID, nullable(msg.ReceiverID), nullable(msg.RoomID),
		msg.Text, msg.Image, msg.Audio, msg.Video, msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetByID returns the message or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Message, error) {
	query := r.db.Rebind(`SELECT id, sender_id, COALESCE(receiver_id, ''), COALESCE(room_id, ''),
        text, image, audio, video, created_at FROM messages WHERE id = ?`)
	msg, err := scanMessage(r.db.Conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

// UpdateText rewrites the message text and returns the updated record,
// or (nil, nil) when no such message exists.
func (r *Repository) UpdateText(ctx context.Context, id, newText string) (*Message, error) {
	query := r.db.Rebind("UPDATE messages SET text = ? WHERE id = ?")
	res, err := r.db.Conn.ExecContext(ctx, query, newText, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Delete removes the message and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	query := r.db.Rebind("DELETE FROM messages WHERE id = ?")
	res, err := r.db.Conn.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// PrivateHistory returns the room-less conversation between two users,
// both directions, oldest first.
func (r *Repository) PrivateHistory(ctx context.Context, userA, userB string) ([]*Message, error) {
	query := r.db.Rebind(`SELECT id, sender_id, COALESCE(receiver_id, ''), COALESCE(room_id, ''),
        text, image, audio, video, created_at
        FROM messages
        WHERE room_id IS NULL
          AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
        ORDER BY created_at ASC`)
	return r.queryMessages(ctx, query, userA, userB, userB, userA)
}

// RoomHistory returns a room's messages, oldest first.
func (r *Repository) RoomHistory(ctx context.Context, roomID string) ([]*Message, error) {
	query := r.db.Rebind(`SELECT id, sender_id, COALESCE(receiver_id, ''), COALESCE(room_id, ''),
        text, image, audio, video, created_at
        FROM messages WHERE room_id = ? ORDER BY created_at ASC`)
	return r.queryMessages(ctx, query, roomID)
}

// SenderRoomIDs lists the distinct rooms a user has posted to.
func (r *Repository) SenderRoomIDs(ctx context.Context, userID string) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT room_id FROM messages
        WHERE room_id IS NOT NULL AND sender_id = ?`)
	rows, err := r.db.Conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) queryMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	msg := &Message{}
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.RoomID,
		&msg.Text, &msg.Image, &msg.Audio, &msg.Video, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package room

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

// Create stores a room and its member list.
func (r *Repository) Create(ctx context.Context, name, roomPic string, members []string) (*Room, error) {
	rm := &Room{
		ID:        uuid.NewString(),
		Name:      name,
		RoomPic:   roomPic,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	query := r.db.Rebind("INSERT INTO rooms (id, name, room_pic, created_at) VALUES (?, ?, ?, ?)")
	if _, err := r.db.Conn.ExecContext(ctx, query, rm.ID, rm.Name, rm.RoomPic, rm.CreatedAt); err != nil {
		return nil, err
	}

	memberQuery := r.db.Rebind("INSERT INTO room_members (room_id, user_id) VALUES (?, ?)")
	for _, userID := range members {
		if _, err := r.db.Conn.ExecContext(ctx, memberQuery, rm.ID, userID); err != nil {
			return nil, err
		}
	}
	return rm, nil
}

// GetByID returns the room with its members, or (nil, nil).
func (r *Repository) GetByID(ctx context.Context, id string) (*Room, error) {
	rm := &Room{}
	query := r.db.Rebind("SELECT id, name, room_pic, created_at FROM rooms WHERE id = ?")
	err := r.db.Conn.QueryRowContext(ctx, query, id).
		Scan(&rm.ID, &rm.Name, &rm.RoomPic, &rm.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	memberQuery := r.db.Rebind("SELECT user_id FROM room_members WHERE room_id = ?")
	rows, err := r.db.Conn.QueryContext(ctx, memberQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		rm.Members = append(rm.Members, userID)
	}
	return rm, rows.Err()
}

// IsMember reports whether userID belongs to the room.
func (r *Repository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	query := r.db.Rebind("SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ?)")
	err := r.db.Conn.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	return exists, err
}

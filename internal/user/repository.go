package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chat-relay/internal/db"
)

type Repository struct {
	db *db.Database
}

func NewRepository(database *db.Database) *Repository {
	return &Repository{db: database}
}

// GetByID returns the profile or (nil, nil) when none exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	query := r.db.Rebind(`SELECT id, username, status, profile_pic, phone_number, created_at
        FROM users WHERE id = ?`)
	err := r.db.Conn.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Status, &u.ProfilePic, &u.PhoneNumber, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Upsert creates the profile on first save; on later saves only the
// fields present in req are overwritten. One statement, so concurrent
// first saves for the same subject cannot collide on the primary key.
func (r *Repository) Upsert(ctx context.Context, id string, req *ProfileRequest) (*User, error) {
	query := r.db.Rebind(`INSERT INTO users (id, username, status, profile_pic, phone_number, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            username     = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
            status       = CASE WHEN excluded.status <> '' THEN excluded.status ELSE users.status END,
            profile_pic  = CASE WHEN excluded.profile_pic <> '' THEN excluded.profile_pic ELSE users.profile_pic END,
            phone_number = CASE WHEN excluded.phone_number <> '' THEN excluded.phone_number ELSE users.phone_number END`)
	_, err := r.db.Conn.ExecContext(ctx, query,
		id, req.Username, req.Status, req.ProfilePic, req.PhoneNumber, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UsernamesByIDs maps user ids to display names for history enrichment.
func (r *Repository) UsernamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	// One lookup per id keeps the query portable across both drivers.
	for _, id := range ids {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			names[id] = u.Username
		}
	}
	return names, nil
}

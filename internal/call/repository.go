package call

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

// Create inserts a new call in the ringing state.
func (r *Repository) Create(ctx context.Context, callerID, receiverID, callType string) (*Call, error) {
	if callType != TypeVideo {
		callType = TypeAudio
	}
	c := &Call{
		ID:         uuid.NewString(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		CallType:   callType,
		Status:     StatusRinging,
		StartedAt:  time.Now().UTC(),
	}
	query := r.db.Rebind(`INSERT INTO calls (id, caller_id, receiver_id, call_type, status, started_at)
        VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.Conn.ExecContext(ctx, query,
		c.ID, c.CallerID, c.ReceiverID, c.CallType, c.Status, c.StartedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID returns the call or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Call, error) {
	query := r.db.Rebind(`SELECT id, caller_id, receiver_id, call_type, status,
        started_at, answered_at, ended_at, COALESCE(duration, 0)
        FROM calls WHERE id = ?`)
	c, err := scanCall(r.db.Conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// SetAccepted marks the call accepted and stamps answered_at, only while
// it is still ringing.
func (r *Repository) SetAccepted(ctx context.Context, id string, answeredAt time.Time) (*Call, error) {
	query := r.db.Rebind(`UPDATE calls SET status = ?, answered_at = ?
        WHERE id = ? AND status = ?`)
	return r.conditionalUpdate(ctx, id, query, StatusAccepted, answeredAt, id, StatusRinging)
}

// SetRejected marks the call rejected, only while it is still ringing.
func (r *Repository) SetRejected(ctx context.Context, id string) (*Call, error) {
	query := r.db.Rebind(`UPDATE calls SET status = ? WHERE id = ? AND status = ?`)
	return r.conditionalUpdate(ctx, id, query, StatusRejected, id, StatusRinging)
}

// SetMissed is the timeout's read-check-write collapsed into one atomic
// statement: the call only becomes missed if it is still ringing.
func (r *Repository) SetMissed(ctx context.Context, id string) (*Call, error) {
	query := r.db.Rebind(`UPDATE calls SET status = ? WHERE id = ? AND status = ?`)
	return r.conditionalUpdate(ctx, id, query, StatusMissed, id, StatusRinging)
}

// SetEnded closes the call with its end time and duration. Only ringing
// and accepted calls can end; a second end is a no-op.
func (r *Repository) SetEnded(ctx context.Context, id string, endedAt time.Time, duration int) (*Call, error) {
	query := r.db.Rebind(`UPDATE calls SET status = ?, ended_at = ?, duration = ?
        WHERE id = ? AND status IN (?, ?)`)
	return r.conditionalUpdate(ctx, id, query,
		StatusEnded, endedAt, duration, id, StatusRinging, StatusAccepted)
}

// conditionalUpdate runs a guarded UPDATE and returns the fresh record
// when a row changed, or (nil, nil) when the guard failed.
func (r *Repository) conditionalUpdate(ctx context.Context, id, query string, args ...any) (*Call, error) {
	res, err := r.db.Conn.ExecContext(ctx, query, args...)
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

// HistoryForUser lists every call the user took part in, newest first.
func (r *Repository) HistoryForUser(ctx context.Context, userID string) ([]*Call, error) {
	query := r.db.Rebind(`SELECT id, caller_id, receiver_id, call_type, status,
        started_at, answered_at, ended_at, COALESCE(duration, 0)
        FROM calls WHERE caller_id = ? OR receiver_id = ?
        ORDER BY started_at DESC`)
	rows, err := r.db.Conn.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (*Call, error) {
	c := &Call{}
	var answeredAt, endedAt sql.NullTime
	err := row.Scan(&c.ID, &c.CallerID, &c.ReceiverID, &c.CallType, &c.Status,
		&c.StartedAt, &answeredAt, &endedAt, &c.Duration)
	if err != nil {
		return nil, err
	}
	if answeredAt.Valid {
		t := answeredAt.Time
		c.AnsweredAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	return c, nil
}

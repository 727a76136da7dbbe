package message

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/db"
	"chat-relay/internal/middleware"
	"chat-relay/internal/room"
	"chat-relay/internal/user"
)

type roomNameAdapter struct {
	repo *room.Repository
}

func (a roomNameAdapter) RoomName(ctx context.Context, roomID string) (string, error) {
	rm, err := a.repo.GetByID(ctx, roomID)
	if err != nil || rm == nil {
		return "", err
	}
	return rm.Name, nil
}

func newTestHandler(t *testing.T) (*Handler, *Repository, *user.Repository, *room.Repository) {
	t.Helper()
	database, err := db.NewDatabase("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { database.Conn.Close() })

	repo := NewRepository(database)
	users := user.NewRepository(database)
	rooms := room.NewRepository(database)
	return NewHandler(repo, users, roomNameAdapter{repo: rooms}), repo, users, rooms
}

func testRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/messages/private/{id}", h.PrivateHistory)
	r.Get("/api/messages/room/{id}", h.RoomHistory)
	return r
}

func TestPrivateHistoryEnriched(t *testing.T) {
	h, repo, users, _ := newTestHandler(t)
	router := testRouter(h, "u1")

	_, err := users.Upsert(context.Background(), "u1", &user.ProfileRequest{Username: "alice"})
	require.NoError(t, err)

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err = repo.Save(context.Background(), &Message{SenderID: "u1", ReceiverID: "u2", Text: "ping", CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), &Message{SenderID: "u2", ReceiverID: "u1", Text: "pong", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/messages/private/u2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var history []Message
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, "ping", history[0].Text)
	assert.Equal(t, "alice", history[0].SenderName)
	// u2 never saved a profile.
	assert.Equal(t, "Unknown", history[1].SenderName)
}

func TestPrivateHistoryEmpty(t *testing.T) {
	h, _, _, _ := newTestHandler(t)
	router := testRouter(h, "u1")

	req := httptest.NewRequest("GET", "/api/messages/private/u2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestRoomHistoryCarriesRoomName(t *testing.T) {
	h, repo, _, rooms := newTestHandler(t)
	router := testRouter(h, "u1")

	rm, err := rooms.Create(context.Background(), "General", "", []string{"u1"})
	require.NoError(t, err)

	_, err = repo.Save(context.Background(), &Message{SenderID: "u1", RoomID: rm.ID, Text: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/messages/room/"+rm.ID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var history []Message
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "General", history[0].RoomName)
}

func TestRoomHistoryUnknownRoomFallsBack(t *testing.T) {
	h, repo, _, _ := newTestHandler(t)
	router := testRouter(h, "u1")

	_, err := repo.Save(context.Background(), &Message{SenderID: "u1", RoomID: "ghost-room", Text: "echo"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/messages/room/ghost-room", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var history []Message
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "Room", history[0].RoomName)
}

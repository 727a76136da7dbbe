package message

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat-relay/internal/middleware"
)

// NameResolver maps user ids to display names; the user repository
// implements it.
type NameResolver interface {
	UsernamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// RoomResolver fetches a room's display name; the room repository
// implements it (through a tiny adapter in main).
type RoomResolver interface {
	RoomName(ctx context.Context, roomID string) (string, error)
}

type Handler struct {
	Repo  *Repository
	Users NameResolver
	Rooms RoomResolver
}

func NewHandler(repo *Repository, users NameResolver, rooms RoomResolver) *Handler {
	return &Handler{Repo: repo, Users: users, Rooms: rooms}
}

// PrivateHistory returns the caller's conversation with another user,
// oldest first, with sender display names attached.
func (h *Handler) PrivateHistory(w http.ResponseWriter, r *http.Request) {
	myID := middleware.UserID(r.Context())
	otherID := chi.URLParam(r, "id")

	messages, err := h.Repo.PrivateHistory(r.Context(), myID, otherID)
	if err != nil {
		http.Error(w, "Failed to fetch private messages", http.StatusInternalServerError)
		return
	}

	if err := h.attachSenderNames(r.Context(), messages); err != nil {
		http.Error(w, "Failed to fetch private messages", http.StatusInternalServerError)
		return
	}
	writeMessages(w, messages)
}

// RoomHistory returns a room's messages, oldest first, with sender and
// room names attached.
func (h *Handler) RoomHistory(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	messages, err := h.Repo.RoomHistory(r.Context(), roomID)
	if err != nil {
		http.Error(w, "Failed to fetch room messages", http.StatusInternalServerError)
		return
	}

	if err := h.attachSenderNames(r.Context(), messages); err != nil {
		http.Error(w, "Failed to fetch room messages", http.StatusInternalServerError)
		return
	}

	roomName, err := h.Rooms.RoomName(r.Context(), roomID)
	if err != nil {
		http.Error(w, "Failed to fetch room messages", http.StatusInternalServerError)
		return
	}
	if roomName == "" {
		roomName = "Room"
	}
	for _, msg := range messages {
		msg.RoomName = roomName
	}
	writeMessages(w, messages)
}

func (h *Handler) attachSenderNames(ctx context.Context, messages []*Message) error {
	seen := make(map[string]bool)
	var ids []string
	for _, msg := range messages {
		if !seen[msg.SenderID] {
			seen[msg.SenderID] = true
			ids = append(ids, msg.SenderID)
		}
	}

	names, err := h.Users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if name, ok := names[msg.SenderID]; ok && name != "" {
			msg.SenderName = name
		} else {
			msg.SenderName = "Unknown"
		}
	}
	return nil
}

func writeMessages(w http.ResponseWriter, messages []*Message) {
	if messages == nil {
		messages = []*Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

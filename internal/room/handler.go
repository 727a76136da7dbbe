package room

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat-relay/internal/middleware"
)

// RoomLister resolves which rooms a user has been active in. The
// message repository implements it; rooms themselves don't track
// per-user activity.
type RoomLister interface {
	SenderRoomIDs(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	Repo     *Repository
	Messages RoomLister
}

func NewHandler(repo *Repository, messages RoomLister) *Handler {
	return &Handler{Repo: repo, Messages: messages}
}

type createRequest struct {
	Name    string   `json:"name"`
	RoomPic string   `json:"roomPic"`
	Members []string `json:"members"`
}

// Create makes a new room. The creator always ends up in the member
// list.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Room name is required", http.StatusBadRequest)
		return
	}

	creator := middleware.UserID(r.Context())
	members := req.Members
	found := false
	for _, m := range members {
		if m == creator {
			found = true
			break
		}
	}
	if !found {
		members = append(members, creator)
	}

	rm, err := h.Repo.Create(r.Context(), req.Name, req.RoomPic, members)
	if err != nil {
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rm)
}

// MyRooms lists the distinct room ids the caller has posted to.
func (h *Handler) MyRooms(w http.ResponseWriter, r *http.Request) {
	roomIDs, err := h.Messages.SenderRoomIDs(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Failed to fetch rooms", http.StatusInternalServerError)
		return
	}
	if roomIDs == nil {
		roomIDs = []string{}
	}
	json.NewEncoder(w).Encode(map[string][]string{"roomIds": roomIDs})
}

// GetByID returns a room's display fields.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	rm, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if rm == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"roomName": rm.Name,
		"roomPic":  rm.RoomPic,
	})
}

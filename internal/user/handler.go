package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat-relay/internal/middleware"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// SaveProfile creates or updates the caller's profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.Repo.Upsert(r.Context(), userID, &req)
	if err != nil {
		http.Error(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(u)
}

// GetProfile returns the caller's own profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Repo.GetByID(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(u)
}

// GetByID returns any user's public profile.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(u)
}

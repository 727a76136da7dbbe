package call

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
	Repo    *Repository
}

func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{Service: service, Repo: repo}
}

type createRequest struct {
	CallerID   string `json:"callerId"`
	ReceiverID string `json:"receiverId"`
	CallType   string `json:"callType"`
}

type updateRequest struct {
	Status string `json:"status"`
}

// Create starts a call: persists it ringing, rings the receiver and
// arms the missed-call timer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.CallerID == "" || req.ReceiverID == "" {
		http.Error(w, "callerId and receiverId are required", http.StatusBadRequest)
		return
	}

	c, err := h.Service.Start(r.Context(), req.CallerID, req.ReceiverID, req.CallType)
	if err != nil {
		http.Error(w, "Failed to create call", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

// History lists a user's calls, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	calls, err := h.Repo.HistoryForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if calls == nil {
		calls = []*Call{}
	}
	json.NewEncoder(w).Encode(calls)
}

// Update is the generic accept/reject/end path. The requested status is
// routed through the lifecycle service so the state machine holds: a
// call in a terminal state stays there and nothing is broadcast.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		updated *Call
		err     error
	)
	switch req.Status {
	case StatusAccepted:
		updated, err = h.Service.Accept(r.Context(), id)
	case StatusRejected:
		updated, err = h.Service.Decline(r.Context(), id)
	case StatusEnded:
		updated, err = h.Service.End(r.Context(), id)
	default:
		http.Error(w, "Unsupported status", http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, "Failed to update call", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		// Unknown id, or a transition the state machine refuses.
		http.Error(w, "Call not found or already settled", http.StatusConflict)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

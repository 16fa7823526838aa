package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// JoinRequest represents the join request body.
type JoinRequest struct {
	Name string `json:"name"`
}

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastActivity string `json:"last_activity"`
}

// Join handles participant registration.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	p, err := h.svc.Join(r.Context(), req.Name)
	if err != nil {
		h.CoreError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, ParticipantResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		LastActivity: p.LastActivity.UTC().Format(time.RFC3339),
	})
}

// ListParticipants handles listing everyone currently in the room.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Participants(r.Context())
	if err != nil {
		h.CoreError(w, err)
		return
	}

	out := make([]ParticipantResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ParticipantResponse{
			ID:           p.ID.String(),
			Name:         p.Name,
			LastActivity: p.LastActivity.UTC().Format(time.RFC3339),
		})
	}
	h.JSON(w, http.StatusOK, out)
}

// GetParticipant handles participant profile lookup by name.
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	p, err := h.svc.Participant(r.Context(), name)
	if err != nil {
		h.CoreError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, ParticipantResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		LastActivity: p.LastActivity.UTC().Format(time.RFC3339),
	})
}

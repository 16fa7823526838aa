package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/chat"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers. Business
// rules live in the chat service; handlers only shape requests and
// responses. The store handles are used for health checks and stats.
type Handler struct {
	svc          *chat.Service
	participants store.ParticipantStore
	messages     store.MessageStore
}

// NewHandler creates a new Handler.
func NewHandler(svc *chat.Service, participants store.ParticipantStore, messages store.MessageStore) *Handler {
	return &Handler{svc: svc, participants: participants, messages: messages}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// CoreError maps a chat service error to an HTTP response.
func (h *Handler) CoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chat.ErrNameTaken):
		h.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrUnknownSender):
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// actingUser extracts the acting participant name from the User
// header. Identity extraction is a transport concern; the core always
// receives the name as an explicit argument.
func actingUser(r *http.Request) string {
	return r.Header.Get("User")
}

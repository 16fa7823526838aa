package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"
)

const maxTextBytes = 4096

// SendMessageRequest represents the post message request.
type SendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func messageResponse(m models.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Kind),
		Time: m.Time.UTC().Format(time.RFC3339),
	}
}

// PostMessage handles sending a message. The sender comes from the
// User header; the message kind must be user-authored — clients cannot
// forge system notices.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	if len(req.Text) > maxTextBytes {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	kind, ok := models.ParseKind(req.Type)
	if !ok || kind == models.KindSystem {
		h.Error(w, http.StatusUnprocessableEntity, "type must be message or private_message")
		return
	}

	msg, err := h.svc.Send(r.Context(), actingUser(r), req.To, req.Text, kind)
	if err != nil {
		h.CoreError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, messageResponse(*msg))
}

// GetMessages handles fetching the message history visible to the
// acting participant, oldest first. limit=0 or absent means the full
// history.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			h.Error(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = l
	}

	msgs, err := h.svc.Messages(r.Context(), actingUser(r), limit)
	if err != nil {
		h.CoreError(w, err)
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse(m))
	}
	h.JSON(w, http.StatusOK, out)
}

// FindResponse represents the search response.
type FindResponse struct {
	Query   string            `json:"query"`
	Results []MessageResponse `json:"results"`
	Total   int               `json:"total"`
}

// Find handles searching the visible message history.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.Error(w, http.StatusUnprocessableEntity, "query parameter 'q' is required")
		return
	}
	if len(query) > 100 {
		h.Error(w, http.StatusUnprocessableEntity, "query too long (max 100 chars)")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 100 {
		limit = 100
	}

	msgs, err := h.svc.Search(r.Context(), actingUser(r), query, limit)
	if err != nil {
		h.CoreError(w, err)
		return
	}

	results := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		results = append(results, messageResponse(m))
	}

	h.JSON(w, http.StatusOK, FindResponse{
		Query:   query,
		Results: results,
		Total:   len(results),
	})
}

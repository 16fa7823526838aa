package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalParticipants int64  `json:"total_participants"`
	TotalMessages     int64  `json:"total_messages"`
	LastActivity      string `json:"last_activity"`
}

// Stats returns room statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalParticipants, err := h.participants.CountParticipants(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count participants")
		return
	}

	totalMessages, err := h.messages.CountMessages(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count messages")
		return
	}

	// Most recent activity across the room, from the registry.
	list, err := h.participants.ListParticipants(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list participants")
		return
	}

	lastActivity := "no activity yet"
	var latest time.Time
	for _, p := range list {
		if p.LastActivity.After(latest) {
			latest = p.LastActivity
		}
	}
	if !latest.IsZero() {
		lastActivity = formatTimeAgo(latest)
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalParticipants: totalParticipants,
		TotalMessages:     totalMessages,
		LastActivity:      lastActivity,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return itoa(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return itoa(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return itoa(days) + " days ago"
	}
}

// itoa converts a non-negative int to string without importing strconv.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

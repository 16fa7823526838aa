package chat

import "github.com/BrVecchi/projeto13-batepapo-uol-api/internal/models"

// VisibleTo reports whether viewer may see msg: broadcasts are visible
// to everyone, targeted messages to their recipient and their sender.
// The match is by exact name regardless of current presence.
func VisibleTo(msg models.Message, viewer string) bool {
	return msg.To == models.Everyone || msg.To == viewer || msg.From == viewer
}

// filterVisible keeps the messages viewer may see, preserving order.
// Filtering happens before any limit truncation so "most recent N
// visible" is computed on the filtered set.
func filterVisible(msgs []models.Message, viewer string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if VisibleTo(m, viewer) {
			out = append(out, m)
		}
	}
	return out
}

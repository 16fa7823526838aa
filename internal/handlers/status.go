package handlers

import "net/http"

// Status handles the heartbeat endpoint. The acting participant comes
// from the User header; an unknown participant gets 404, never an
// implicit re-join.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Heartbeat(r.Context(), actingUser(r)); err != nil {
		h.CoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

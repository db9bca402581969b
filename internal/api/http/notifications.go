package http

import (
	"net/http"

	"rentsnap/internal/domain"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.b.ListNotifications(r.Context(), viewerID(r.Context()), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var n domain.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.b.CreateNotification(r.Context(), viewerID(r.Context()), &n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) PatchNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch domain.NotificationPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.b.MarkNotificationRead(r.Context(), viewerID(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

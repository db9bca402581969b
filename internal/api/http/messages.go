package http

import (
	"net/http"

	"rentsnap/internal/domain"
)

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	convs, err := h.b.ListConversations(r.Context(), viewerID(r.Context()), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(convs))
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var c domain.Conversation
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	conv, err := h.b.CreateConversation(r.Context(), viewerID(r.Context()), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := queryID(r, "conversation_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := h.b.ListMessages(r.Context(), viewerID(r.Context()), convID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var m domain.Message
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.b.SendMessage(r.Context(), viewerID(r.Context()), &m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) PatchMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch domain.MessagePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.b.MarkMessageRead(r.Context(), viewerID(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

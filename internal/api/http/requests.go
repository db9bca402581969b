package http

import (
	"context"
	"net/http"

	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := repository.ParseRequestFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	reqs, err := h.b.ListRequests(r.Context(), viewerID(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reqs))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.b.GetRequest(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var nr domain.NewRequest
	if err := decodeJSON(r, &nr); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.b.CreateRequest(r.Context(), viewerID(r.Context()), nr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) PatchRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch domain.RequestPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.b.PatchRequest(r.Context(), viewerID(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ConfirmHandover(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, h.b.ConfirmHandover)
}

func (h *Handler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, h.b.ConfirmReturn)
}

type confirmFunc func(ctx context.Context, userID, requestID int32, code string) (*domain.RentalRequest, error)

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, fn confirmFunc) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body domain.CodeSubmission
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	code := body.Code
	if code == "" {
		code = body.ReturnCode
	}
	req, err := fn(r.Context(), viewerID(r.Context()), id, code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.b.SimulatePayment(r.Context(), viewerID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

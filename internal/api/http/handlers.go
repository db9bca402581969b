package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rentsnap/internal/backend"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type Handler struct {
	b *backend.Backend
}

func NewHandler(b *backend.Backend) *Handler {
	return &Handler{b: b}
}

func pathID(r *http.Request) (int32, error) {
	n, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, &domain.ValidationError{Field: "id", Message: "expected a numeric id"}
	}
	return int32(n), nil
}

func queryID(r *http.Request, key string) (int32, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Message: "expected a numeric id"}
	}
	return int32(n), nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Backend is running"})
}

// Auth

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.b.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(r, &reg); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.b.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Items

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter, err := repository.ParseItemFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.b.ListItems(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.b.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item domain.Item
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.b.CreateItem(r.Context(), viewerID(r.Context()), &item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) PatchItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch backend.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.b.PatchItem(r.Context(), viewerID(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.b.DeleteItem(r.Context(), viewerID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.b.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.b.CreateCategory(r.Context(), c.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

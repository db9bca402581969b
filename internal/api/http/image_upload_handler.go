package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"rentsnap/internal/backend"
	"rentsnap/internal/domain"
)

// ImageHandler accepts item photo uploads and serves locally stored images.
type ImageHandler struct {
	b        *backend.Backend
	maxBytes int64
	mediaDir string
}

// NewImageHandler serves files from mediaDir when it is set.
func NewImageHandler(b *backend.Backend, maxBytes int64, mediaDir string) *ImageHandler {
	return &ImageHandler{b: b, maxBytes: maxBytes, mediaDir: mediaDir}
}

// HandleUpload takes the multipart field "image".
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &domain.ValidationError{Field: "image", Message: "The uploaded file is too large."})
			return
		}
		writeError(w, r, &domain.ValidationError{Field: "image", Message: "No file was submitted."})
		return
	}
	defer file.Close()

	item, err := h.b.UploadImage(r.Context(), viewerID(r.Context()), id, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleMedia streams a stored image from the local upload directory.
func (h *ImageHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["path"]
	full := filepath.Join(h.mediaDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(h.mediaDir, full)
	if h.mediaDir == "" || err != nil || strings.HasPrefix(rel, "..") {
		writeDetail(w, r, http.StatusNotFound, "Not found.", "")
		return
	}
	file, err := os.Open(full)
	if err != nil {
		writeDetail(w, r, http.StatusNotFound, "Not found.", "")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		writeDetail(w, r, http.StatusNotFound, "Not found.", "")
		return
	}

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

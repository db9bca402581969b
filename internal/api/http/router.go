// Package http is the REST surface of the rental backend.
package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"rentsnap/internal/backend"
)

// APIPrefix is where the REST resources are mounted.
const APIPrefix = "/api"

type RouterOptions struct {
	AllowedOrigins []string
	// MediaDir is served under /media/ when images are stored locally.
	MediaDir       string
	MaxUploadBytes int64
}

// NewRouter wires every endpoint behind the standard middleware chain.
func NewRouter(b *backend.Backend, opts RouterOptions) http.Handler {
	h := NewHandler(b)
	images := NewImageHandler(b, opts.MaxUploadBytes, opts.MediaDir)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	if opts.MediaDir != "" {
		router.HandleFunc("/media/{path:.+}", images.HandleMedia).Methods(http.MethodGet)
	}

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(NewAuthMiddleware(b, APIPrefix).Handler)

	api.HandleFunc("/auth/login/", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register/", h.Register).Methods(http.MethodPost)

	api.HandleFunc("/items/", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items/", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id:[0-9]+}/", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}/", h.PatchItem).Methods(http.MethodPatch, http.MethodPut)
	api.HandleFunc("/items/{id:[0-9]+}/", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/items/{id:[0-9]+}/upload-image/", images.HandleUpload).Methods(http.MethodPost)

	api.HandleFunc("/categories/", h.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/", h.CreateCategory).Methods(http.MethodPost)

	api.HandleFunc("/requests/", h.ListRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/", h.CreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id:[0-9]+}/", h.GetRequest).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id:[0-9]+}/", h.PatchRequest).Methods(http.MethodPatch)
	api.HandleFunc("/requests/{id:[0-9]+}/confirm_handover/", h.ConfirmHandover).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id:[0-9]+}/confirm_return/", h.ConfirmReturn).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id:[0-9]+}/simulate_payment/", h.SimulatePayment).Methods(http.MethodPost)

	api.HandleFunc("/notifications/", h.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/", h.CreateNotification).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id:[0-9]+}/", h.PatchNotification).Methods(http.MethodPatch)

	api.HandleFunc("/conversations/", h.ListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/", h.CreateConversation).Methods(http.MethodPost)
	api.HandleFunc("/messages/", h.ListMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id:[0-9]+}/", h.PatchMessage).Methods(http.MethodPatch)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})
	return alice.New(recoverPanic, requestID, logRequest, c.Handler).Then(router)
}

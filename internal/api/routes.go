package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(r *mux.Router, h *Handler) {
	sub := r.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/status", h.Status).Methods(http.MethodGet)

	sub.HandleFunc("/site", h.ListSites).Methods(http.MethodGet)
	sub.HandleFunc("/site", h.UpsertSite).Methods(http.MethodPost)
	sub.HandleFunc("/site", h.DeleteSite).Methods(http.MethodDelete)

	sub.HandleFunc("/assigned", h.ListAssigned).Methods(http.MethodGet)
	sub.HandleFunc("/assigned", h.UpsertAssigned).Methods(http.MethodPost)
	sub.HandleFunc("/assigned", h.DeleteAssigned).Methods(http.MethodDelete)

	sub.HandleFunc("/ipcheck", h.ListIPChecks).Methods(http.MethodGet)
	sub.HandleFunc("/ipcheck", h.UpsertIPCheck).Methods(http.MethodPost)
	sub.HandleFunc("/ipcheck", h.DeleteIPCheck).Methods(http.MethodDelete)
}

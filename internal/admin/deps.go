package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"ipcheck/internal/api"
)

// Dependencies — то же хранилище и тот же оркестратор, что у JSON API.
type Dependencies struct {
	Store    api.Store
	Sweeper  api.Sweeper
	Operator string // modifiedby для правок из веб-страницы, если не передан в форме
}

func Attach(r *mux.Router, d Dependencies) error {
	t, err := parseTemplates()
	if err != nil {
		return err
	}
	h := &Handler{d: d, t: t}
	sub := r.PathPrefix("/admin").Subrouter()

	// pages
	sub.HandleFunc("", h.redirect("/admin/sweep")).Methods(http.MethodGet)
	sub.HandleFunc("/", h.redirect("/admin/sweep")).Methods(http.MethodGet)
	sub.HandleFunc("/sweep", h.SweepPage).Methods(http.MethodGet)
	sub.HandleFunc("/sites", h.SitesPage).Methods(http.MethodGet)

	// формы (POST + redirect обратно)
	sub.HandleFunc("/rows/{ip}", h.SaveRow).Methods(http.MethodPost)
	sub.HandleFunc("/rows/{ip}/delete", h.DeleteRow).Methods(http.MethodPost)
	sub.HandleFunc("/sites", h.SaveSite).Methods(http.MethodPost)

	// static (very small)
	sub.HandleFunc("/static/style.css", serveCSS).Methods(http.MethodGet)
	return nil
}

package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"ipcheck/internal/models"
)

const pingTimeout = 3 * time.Second

type status struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RegisterRoutes — базовый liveness.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
}

// RegisterRoutesWithDB — liveness + readiness (пинг БД инвентаря).
func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB) {
	RegisterRoutes(r)
	r.HandleFunc("/readyz", readiness(db)).Methods(http.MethodGet)
}

func readiness(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			models.WriteJSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", Error: "db not configured"})
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			models.WriteJSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", Error: err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			models.WriteJSON(w, http.StatusServiceUnavailable, status{Status: "unavailable", DB: db.Dialector.Name(), Error: err.Error()})
			return
		}
		models.WriteJSON(w, http.StatusOK, status{Status: "ok", DB: db.Dialector.Name()})
	}
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, status{Status: "ok"})
}

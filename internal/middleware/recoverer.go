package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"ipcheck/internal/logs"
	"ipcheck/internal/models"
)

// Recoverer перехватывает панику в обработчике, пишет лог со стеком
// и отвечает 500 в том же формате {error, details}, что и остальные ошибки API.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				reqid := GetRequestID(r)
				logs.Logger.WithField("reqid", reqid).Errorf("panic: %v uri=%s method=%s\nstack:\n%s",
					rec, r.RequestURI, r.Method, string(debug.Stack()))
				models.WriteError(w, http.StatusInternalServerError,
					"Internal Server Error", fmt.Sprintf("unexpected server error, reqid=%s", reqid))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

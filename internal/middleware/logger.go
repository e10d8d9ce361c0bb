package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"ipcheck/internal/logs"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// LoggerMW — access-лог одной строкой с полями logrus.
// Sweep подсети идёт десятки секунд, поэтому dur пишем всегда.
func LoggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			// обработчик ничего не записал (например, клиент отменил sweep)
			status = http.StatusOK
		}
		entry := logs.Logger.WithFields(logrus.Fields{
			"reqid":  GetRequestID(r),
			"method": r.Method,
			"uri":    r.RequestURI,
			"status": status,
			"bytes":  sw.bytes,
			"dur":    time.Since(start).String(),
			"remote": r.RemoteAddr,
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request")
	})
}

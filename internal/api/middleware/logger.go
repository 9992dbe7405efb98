package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request through logrus.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return chiMiddleware.RequestLogger(&logFormatter{log: log})
}

type logFormatter struct {
	log logrus.FieldLogger
}

func (f *logFormatter) NewLogEntry(r *http.Request) chiMiddleware.LogEntry {
	return &logEntry{log: f.log.WithFields(logrus.Fields{
		"request_id":  chiMiddleware.GetReqID(r.Context()),
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	})}
}

type logEntry struct {
	log logrus.FieldLogger
}

func (e *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	entry := e.log.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
	})
	if status >= http.StatusInternalServerError {
		entry.Warn("request completed")
		return
	}
	entry.Info("request completed")
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.log.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("request panicked")
}

package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/RichardoC/dentalchat/internal/dialogue"
	"github.com/RichardoC/dentalchat/internal/models"
	"go.uber.org/zap"
)

// NewRouter mounts every endpoint. widget may be nil when the realtime
// chat widget is not served.
func NewRouter(handler *Handler, widget http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ai/chat", handler.HandleChat)
	// Path the website's serverless deployment used.
	mux.HandleFunc("/.netlify/functions/ai-chat", handler.HandleChat)

	for _, kind := range models.LeadKinds {
		mux.HandleFunc(dialogue.Path(kind), handler.HandleLead(kind))
	}
	mux.HandleFunc("/api/contact", handler.HandleContact)
	mux.HandleFunc("/api/leads", handler.ListLeads)

	mux.HandleFunc("/healthz", handler.Health)
	mux.Handle("/metrics", handler.metrics.Handler())
	if widget != nil {
		mux.Handle("/ws/chat", widget)
	}

	return handler.recoverer(handler.logRequests(mux))
}

// recoverer turns a panic into the standard failure envelope.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack is needed by the websocket upgrade.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/llm"
	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Completer is the upstream chat completion client.
type Completer interface {
	CompleteChat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// LeadService stores and lists leads.
type LeadService interface {
	Submit(ctx context.Context, kind models.LeadKind, fields map[string]string) (*models.Lead, error)
	List(kind models.LeadKind, limit int) ([]models.Lead, error)
}

// Store holds contact form submissions. Ping backs the health check.
type Store interface {
	SaveContactMessage(msg *models.ContactMessage) error
	Ping() error
}

type Handler struct {
	chat     Completer
	leads    LeadService
	contacts Store
	metrics  *metrics.Metrics
	cfg      config.Config
	logger   *zap.Logger
}

// NewHandler builds the HTTP handlers. A nil chat completer means the
// upstream credential is not configured; the proxy then answers with a
// configuration error.
func NewHandler(chat Completer, leads LeadService, contacts Store, m *metrics.Metrics, cfg config.Config, logger *zap.Logger) *Handler {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chat:     chat,
		leads:    leads,
		contacts: contacts,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
	}
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if h.contacts != nil {
		if err := h.contacts.Ping(); err != nil {
			h.logger.Error("database ping failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeSuccess(w, map[string]string{"status": "ok"})
}

// cors sets the cross-origin headers and answers preflight requests. It
// reports whether the request has been fully handled.
func (h *Handler) cors(w http.ResponseWriter, r *http.Request, methods string) bool {
	if origin := h.cfg.CORSOrigin(r.Header.Get("Origin")); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}
	}
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, models.Envelope{Success: false, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

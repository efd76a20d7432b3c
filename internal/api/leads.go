package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/RichardoC/dentalchat/internal/intake"
	"github.com/RichardoC/dentalchat/internal/models"
	"go.uber.org/zap"
)

const defaultLeadLimit = 50

// HandleLead accepts one kind of lead as a flat JSON object of strings.
func (h *Handler) HandleLead(kind models.LeadKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cors(w, r, "POST, OPTIONS") {
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}

		var fields map[string]string
		if err := decodeBody(w, r, &fields); err != nil {
			h.metrics.LeadsTotal.WithLabelValues(string(kind), "bad_request").Inc()
			writeError(w, http.StatusBadRequest, "Request body must be a JSON object of strings")
			return
		}

		// The lead service counts its own outcomes.
		lead, err := h.leads.Submit(r.Context(), kind, fields)
		if errors.Is(err, intake.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			h.logger.Error("Failed to submit lead", zap.String("kind", string(kind)), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save request")
			return
		}

		writeSuccess(w, models.LeadReceipt{ID: lead.ID.String()})
	}
}

// ListLeads is the staff view of recent leads, guarded by the admin token.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminToken == "" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.AdminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	kind := models.LeadKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown lead kind")
		return
	}
	limit := defaultLeadLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	leads, err := h.leads.List(kind, limit)
	if err != nil {
		h.logger.Error("Failed to list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeSuccess(w, leads)
}

type ContactRequest struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Message           string `json:"message"`
	ContactPreference string `json:"contactPreference"`
	AppointmentType   string `json:"appointmentType"`
}

// HandleContact stores a website contact form submission.
func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	if h.cors(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.ContactTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		h.metrics.ContactTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "email and message are required")
		return
	}

	msg := &models.ContactMessage{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             strings.TrimSpace(req.Email),
		Phone:             req.Phone,
		Message:           req.Message,
		ContactPreference: req.ContactPreference,
		AppointmentType:   req.AppointmentType,
	}
	if err := h.contacts.SaveContactMessage(msg); err != nil {
		h.logger.Error("Failed to save contact message", zap.Error(err))
		h.metrics.ContactTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	h.metrics.ContactTotal.WithLabelValues("success").Inc()
	writeSuccess(w, map[string]int64{"id": msg.ID})
}

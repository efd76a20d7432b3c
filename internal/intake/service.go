// Package intake records leads submitted from the website and hands them to
// the practice's follow-up channels.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidRecord = errors.New("invalid lead record")

type Store interface {
	SaveLead(lead *models.Lead) error
	ListLeads(kind models.LeadKind, limit int) ([]models.Lead, error)
}

// Publisher announces a stored lead to downstream workers.
type Publisher interface {
	Publish(ctx context.Context, lead *models.Lead) error
}

// Forwarder hands a stored lead to an external automation.
type Forwarder interface {
	Forward(ctx context.Context, lead *models.Lead) error
}

type Service struct {
	store     Store
	publisher Publisher
	forwarder Forwarder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the store with optional publisher and forwarder (nil
// disables them). Every submission is counted in m, whether it came over
// HTTP or from an in-process chat session.
func NewService(store Store, publisher Publisher, forwarder Forwarder, m *metrics.Metrics, logger *zap.Logger) *Service {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		forwarder: forwarder,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates and stores a lead, then notifies downstream channels.
// Notification failures are logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, kind models.LeadKind, fields map[string]string) (*models.Lead, error) {
	lead, err := s.build(kind, fields)
	if err != nil {
		s.count(kind, "bad_request")
		return nil, err
	}

	if err := s.store.SaveLead(lead); err != nil {
		s.count(kind, "error")
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}
	s.count(kind, "success")
	s.logger.Info("lead received",
		zap.String("id", lead.ID.String()),
		zap.String("kind", string(lead.Kind)))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, lead); err != nil {
			s.logger.Warn("failed to publish lead", zap.String("id", lead.ID.String()), zap.Error(err))
		}
	}
	if s.forwarder != nil {
		if err := s.forwarder.Forward(ctx, lead); err != nil {
			s.logger.Warn("failed to forward lead", zap.String("id", lead.ID.String()), zap.Error(err))
		}
	}
	return lead, nil
}

func (s *Service) count(kind models.LeadKind, outcome string) {
	label := string(kind)
	if !kind.Valid() {
		label = "unknown"
	}
	s.metrics.LeadsTotal.WithLabelValues(label, outcome).Inc()
}

// SubmitLead satisfies the chat session's lead submitter for in-process use.
func (s *Service) SubmitLead(ctx context.Context, kind models.LeadKind, record map[string]string) error {
	_, err := s.Submit(ctx, kind, record)
	return err
}

func (s *Service) List(kind models.LeadKind, limit int) ([]models.Lead, error) {
	return s.store.ListLeads(kind, limit)
}

func (s *Service) build(kind models.LeadKind, fields map[string]string) (*models.Lead, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, kind)
	}
	name := strings.TrimSpace(fields["name"])
	email := strings.TrimSpace(fields["email"])
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidRecord)
	}

	lead := &models.Lead{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		Email:     email,
		Fields:    map[string]string{},
		CreatedAt: s.now().UTC(),
	}
	for k, v := range fields {
		switch k {
		case "name", "email":
		case "phone":
			lead.Phone = v
		case "insuranceProvider":
			lead.InsuranceProvider = v
		default:
			lead.Fields[k] = v
		}
	}
	return lead, nil
}

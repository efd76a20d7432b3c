package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const (
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
)

var (
	ErrMissingAPIKey   = errors.New("upstream API key is not configured")
	ErrEmptyCompletion = errors.New("upstream returned no completion")
)

// Options configures the upstream client.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	SiteURL   string
	SiteTitle string
	// Metrics, when set, receives the latency of every upstream call.
	Metrics *metrics.Metrics
}

// ChatRequest is one completion request. An empty Model and nil pointers
// mean defaults; explicit values are forwarded as given.
type ChatRequest struct {
	Messages    []models.ChatMessage
	Model       string
	MaxTokens   *int
	Temperature *float64
}

type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Service talks to an OpenAI-compatible chat completion API.
type Service struct {
	llm     generator
	model   string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(opts Options, logger *zap.Logger) (*Service, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	llm, err := openai.New(
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.Model),
		openai.WithHTTPClient(newDoer(opts.SiteURL, opts.SiteTitle)),
	)
	if err != nil {
		return nil, err
	}
	return &Service{llm: llm, model: opts.Model, metrics: opts.Metrics, logger: logger}, nil
}

// CompleteChat forwards the conversation and returns the first completion's
// text. A non-success upstream status is reported as *UpstreamError.
func (s *Service) CompleteChat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("messages must not be empty")
	}

	model := req.Model
	if model == "" {
		model = s.model
	}
	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	ctx, rec := withRecorder(ctx)
	start := time.Now()
	resp, err := s.llm.GenerateContent(ctx, content,
		llms.WithModel(model),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if s.metrics != nil {
		s.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Debug("upstream completion",
		zap.String("model", model),
		zap.Int("messages", len(content)),
		zap.Duration("elapsed", time.Since(start)))

	if upstream := rec.failure(); upstream != nil {
		return "", upstream
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

// Outcome labels a CompleteChat result for the request counter.
func Outcome(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &upstream), errors.Is(err, ErrEmptyCompletion):
		return "upstream_error"
	}
	return "internal_error"
}

func messageType(role models.Role) schema.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

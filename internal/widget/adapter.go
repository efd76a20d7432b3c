package widget

import (
	"context"

	"github.com/RichardoC/dentalchat/internal/llm"
	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
)

// Upstream is the chat completion client the widget asks on the user's
// behalf, normally the same llm.Service the proxy uses.
type Upstream interface {
	CompleteChat(ctx context.Context, req llm.ChatRequest) (string, error)
}

// UpstreamCompleter adapts Upstream to the session's ChatCompleter using
// the default model and sampling parameters. Requests are counted in
// Metrics when it is set.
type UpstreamCompleter struct {
	Upstream Upstream
	Metrics  *metrics.Metrics
}

func (c UpstreamCompleter) CompleteChat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	reply, err := c.Upstream.CompleteChat(ctx, llm.ChatRequest{Messages: messages})
	if c.Metrics != nil {
		c.Metrics.ChatRequestsTotal.WithLabelValues(llm.Outcome(err)).Inc()
	}
	return reply, err
}

package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/RichardoC/dentalchat/internal/models"
)

// WebhookForwarder posts each lead to an automation webhook (Make.com or
// n8n scenario). The scenario branches on the "kind" field.
type WebhookForwarder struct {
	URL    string
	Client *http.Client
}

func NewWebhookForwarder(url string) *WebhookForwarder {
	return &WebhookForwarder{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (f *WebhookForwarder) Forward(ctx context.Context, lead *models.Lead) error {
	payload := map[string]string{
		"id":        lead.ID.String(),
		"kind":      string(lead.Kind),
		"name":      lead.Name,
		"email":     lead.Email,
		"createdAt": lead.CreatedAt.Format(time.RFC3339),
	}
	if lead.Phone != "" {
		payload["phone"] = lead.Phone
	}
	if lead.InsuranceProvider != "" {
		payload["insuranceProvider"] = lead.InsuranceProvider
	}
	for k, v := range lead.Fields {
		if _, taken := payload[k]; !taken {
			payload[k] = v
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

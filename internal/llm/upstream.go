package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 4096

// UpstreamError is a non-success status from the chat completion API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Body)
}

type (
	recorderKey struct{}
	refererKey  struct{}
)

// WithReferer carries the caller's Referer to the upstream attribution
// header. Without one the configured site URL is sent.
func WithReferer(ctx context.Context, referer string) context.Context {
	return context.WithValue(ctx, refererKey{}, referer)
}

// statusRecorder captures the first failed upstream response of a request.
type statusRecorder struct {
	mu  sync.Mutex
	err *UpstreamError
}

func withRecorder(ctx context.Context) (context.Context, *statusRecorder) {
	rec := &statusRecorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

func (r *statusRecorder) record(status int, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = &UpstreamError{StatusCode: status, Body: string(bytes.TrimSpace(body))}
	}
}

func (r *statusRecorder) failure() *UpstreamError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// doer adds attribution headers to upstream requests and records failed
// responses so the caller sees the real status code.
type doer struct {
	client    *http.Client
	siteURL   string
	siteTitle string
}

func newDoer(siteURL, siteTitle string) *doer {
	return &doer{client: http.DefaultClient, siteURL: siteURL, siteTitle: siteTitle}
}

func (d *doer) Do(req *http.Request) (*http.Response, error) {
	referer, _ := req.Context().Value(refererKey{}).(string)
	if referer == "" {
		referer = d.siteURL
	}
	if referer != "" {
		req.Header.Set("HTTP-Referer", referer)
	}
	if d.siteTitle != "" {
		req.Header.Set("X-Title", d.siteTitle)
	}

	resp, err := d.client.Do(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	rec, ok := req.Context().Value(recorderKey{}).(*statusRecorder)
	if !ok {
		return resp, nil
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	rec.record(resp.StatusCode, body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RichardoC/dentalchat/internal/assistant"
	"github.com/RichardoC/dentalchat/internal/category"
	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/db"
	"github.com/RichardoC/dentalchat/internal/intake"
	"github.com/RichardoC/dentalchat/internal/llm"
	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeUpstream struct {
	mu    sync.Mutex
	reqs  []llm.ChatRequest
	reply string
}

func (f *fakeUpstream) CompleteChat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, nil
}

type fakeLeads struct {
	mu      sync.Mutex
	kinds   []models.LeadKind
	records []map[string]string
}

func (f *fakeLeads) SubmitLead(_ context.Context, kind models.LeadKind, record map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	f.records = append(f.records, record)
	return nil
}

func newWidgetServer(t *testing.T, up *fakeUpstream, leads *fakeLeads, cfg config.Config, m *metrics.Metrics) *httptest.Server {
	t.Helper()
	h := NewHandler(UpstreamCompleter{Upstream: up}, leads, cfg, m, zaptest.NewLogger(t))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func readTranscript(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	out := readFrame(t, conn)
	require.Equal(t, FrameTranscript, out.Type, out.Error)
	require.NotNil(t, out.Open)
	return out
}

func last(out Outbound) string {
	return out.Messages[len(out.Messages)-1].Content
}

func TestWidgetGreetsOnConnect(t *testing.T) {
	srv := newWidgetServer(t, &fakeUpstream{}, &fakeLeads{}, config.Config{}, nil)
	conn := dial(t, srv, nil)

	out := readTranscript(t, conn)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, assistant.Greeting, out.Messages[0].Content)
	assert.False(t, *out.Open)

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameOpen}))
	assert.True(t, *readTranscript(t, conn).Open)
	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameClose}))
	assert.False(t, *readTranscript(t, conn).Open)
}

func TestWidgetScheduleScenario(t *testing.T) {
	up := &fakeUpstream{reply: "Yomi is a robotic guidance system for implants."}
	leads := &fakeLeads{}
	srv := newWidgetServer(t, up, leads, config.Config{}, nil)
	conn := dial(t, srv, nil)
	readTranscript(t, conn)

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameAction, Kind: models.LeadAppointment}))
	out := readTranscript(t, conn)
	assert.Contains(t, last(out), "name, email, and phone number")

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameSend, Text: "Jane Doe, jane@example.com, 555-1234"}))
	assert.Equal(t, FrameThinking, readFrame(t, conn).Type)
	out = readTranscript(t, conn)
	assert.Contains(t, last(out), "Jane Doe")
	assert.Contains(t, last(out), "jane@example.com")

	leads.mu.Lock()
	require.Len(t, leads.records, 1)
	assert.Equal(t, models.LeadAppointment, leads.kinds[0])
	assert.Equal(t, "555-1234", leads.records[0]["phone"])
	leads.mu.Unlock()

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameSend, Text: "What is Yomi?"}))
	assert.Equal(t, FrameThinking, readFrame(t, conn).Type)
	out = readTranscript(t, conn)
	reply := out.Messages[len(out.Messages)-1]
	assert.Equal(t, up.reply, reply.Content)
	assert.Equal(t, category.Yomi, reply.Category)
	assert.NotEmpty(t, reply.Actions)

	up.mu.Lock()
	require.Len(t, up.reqs, 1)
	assert.Nil(t, up.reqs[0].MaxTokens)
	assert.Equal(t, models.RoleSystem, up.reqs[0].Messages[0].Role)
	up.mu.Unlock()

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameReset}))
	out = readTranscript(t, conn)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, assistant.Greeting, out.Messages[0].Content)
}

func TestWidgetRejectsBadFrames(t *testing.T) {
	srv := newWidgetServer(t, &fakeUpstream{}, &fakeLeads{}, config.Config{}, nil)
	conn := dial(t, srv, nil)
	readTranscript(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: "dance"}))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameAction, Kind: "dinner"}))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameSend, Text: "   "}))
	out := readFrame(t, conn)
	assert.Equal(t, FrameError, out.Type)
	assert.NotEmpty(t, out.Error)
}

func TestWidgetOriginAllowList(t *testing.T) {
	srv := newWidgetServer(t, &fakeUpstream{}, &fakeLeads{},
		config.Config{AllowedOrigins: []string{"https://drgregpedro.com"}}, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": {"https://drgregpedro.com"}})
	readTranscript(t, conn)
}

func TestWidgetConnectionGauge(t *testing.T) {
	m := metrics.New()
	srv := newWidgetServer(t, &fakeUpstream{}, &fakeLeads{}, config.Config{}, m)

	conn := dial(t, srv, nil)
	readTranscript(t, conn)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WidgetConnections))

	conn.Close()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.WidgetConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWidgetCountsLeadsAndQueries(t *testing.T) {
	store, err := db.New(filepath.Join(t.TempDir(), "widget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zaptest.NewLogger(t)
	m := metrics.New()
	up := &fakeUpstream{reply: "TMJ treatment relieves jaw pain."}
	h := NewHandler(UpstreamCompleter{Upstream: up, Metrics: m}, intake.NewService(store, nil, nil, m, logger), config.Config{}, m, logger)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn := dial(t, srv, nil)
	readTranscript(t, conn)

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameAction, Kind: models.LeadAppointment}))
	readTranscript(t, conn)
	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameSend, Text: "Jane Doe, jane@example.com, 555-1234"}))
	assert.Equal(t, FrameThinking, readFrame(t, conn).Type)
	assert.Contains(t, last(readTranscript(t, conn)), "Thank you, Jane Doe")

	leads, err := store.ListLeads(models.LeadAppointment, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "555-1234", leads[0].Phone)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsTotal.WithLabelValues("appointment", "success")))

	require.NoError(t, conn.WriteJSON(Inbound{Type: FrameSend, Text: "Do you treat jaw pain?"}))
	assert.Equal(t, FrameThinking, readFrame(t, conn).Type)
	readTranscript(t, conn)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("success")))
}

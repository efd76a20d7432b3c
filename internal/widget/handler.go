// Package widget serves the chat widget over a WebSocket. Each connection
// owns one conversation session, which lives as long as the browser tab.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/metrics"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/RichardoC/dentalchat/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Inbound frame types.
const (
	FrameSend   = "send"
	FrameAction = "action"
	FrameReset  = "reset"
	FrameOpen   = "open"
	FrameClose  = "close"
)

// Outbound frame types.
const (
	FrameThinking   = "thinking"
	FrameTranscript = "transcript"
	FrameError      = "error"
)

// Inbound is a frame sent by the browser.
type Inbound struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	Kind models.LeadKind `json:"kind,omitempty"`
}

// Outbound is a frame sent to the browser.
type Outbound struct {
	Type     string          `json:"type"`
	Messages []session.Entry `json:"messages,omitempty"`
	Open     *bool           `json:"open,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type Handler struct {
	chat           session.ChatCompleter
	leads          session.LeadSubmitter
	officePhone    string
	allowedOrigins map[string]bool
	metrics        *metrics.Metrics
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

func NewHandler(chat session.ChatCompleter, leads session.LeadSubmitter, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		chat:           chat,
		leads:          leads,
		officePhone:    cfg.OfficePhone,
		allowedOrigins: make(map[string]bool),
		metrics:        m,
		logger:         logger,
	}
	if h.officePhone == "" {
		h.officePhone = config.DefaultOfficePhone
	}
	for _, o := range cfg.AllowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients.
		return true
	}
	return h.allowedOrigins[origin]
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.metrics.WidgetConnections.Inc()
	defer h.metrics.WidgetConnections.Dec()

	id := uuid.New().String()
	c := &connection{
		conn:   conn,
		logger: h.logger.With(zap.String("connection_id", id)),
	}
	c.session = session.New(h.chat, h.leads,
		session.WithLogger(c.logger),
		session.WithOfficePhone(h.officePhone))

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.wg.Wait()
		conn.Close()
	}()

	c.logger.Info("widget connected")
	c.sendTranscript()
	c.readLoop(ctx)
	c.logger.Info("widget disconnected")
}

// connection is one browser tab.
type connection struct {
	conn    *websocket.Conn
	session *session.Session
	logger  *zap.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (c *connection) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError("Invalid frame: expected a JSON object with a type")
			continue
		}
		c.handle(ctx, in)
	}
}

func (c *connection) handle(ctx context.Context, in Inbound) {
	switch in.Type {
	case FrameSend:
		if strings.TrimSpace(in.Text) == "" {
			c.sendError(session.ErrEmptyInput.Error())
			return
		}
		if c.session.Busy() {
			c.sendError(session.ErrBusy.Error())
			return
		}
		c.send(Outbound{Type: FrameThinking})
		c.background(func() error { return c.session.Send(ctx, in.Text) })

	case FrameAction:
		if !in.Kind.Valid() {
			c.sendError("Unknown action")
			return
		}
		c.background(func() error { return c.session.StartDialogue(ctx, in.Kind) })

	case FrameReset:
		c.session.Reset()
		c.sendTranscript()

	case FrameOpen:
		c.session.Open()
		c.sendTranscript()

	case FrameClose:
		c.session.Close()
		c.sendTranscript()

	default:
		c.sendError("Unknown frame type")
	}
}

// background runs a session call off the read loop so that reset and close
// frames are still handled while the upstream call is outstanding.
func (c *connection) background(call func() error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := call(); err != nil {
			if !errors.Is(err, session.ErrBusy) && !errors.Is(err, session.ErrEmptyInput) {
				c.logger.Warn("session call failed", zap.Error(err))
			}
			c.sendError(err.Error())
			return
		}
		c.sendTranscript()
	}()
}

func (c *connection) sendTranscript() {
	open := c.session.IsOpen()
	c.send(Outbound{Type: FrameTranscript, Messages: c.session.Transcript(), Open: &open})
}

func (c *connection) sendError(msg string) {
	c.send(Outbound{Type: FrameError, Error: msg})
}

func (c *connection) send(out Outbound) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(out); err != nil {
		c.logger.Debug("failed to write frame", zap.String("type", out.Type), zap.Error(err))
	}
}

// Package session holds one conversation with the assistant widget and
// drives the guided dialogue's effects.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/RichardoC/dentalchat/internal/assistant"
	"github.com/RichardoC/dentalchat/internal/category"
	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/dialogue"
	"github.com/RichardoC/dentalchat/internal/models"
	"go.uber.org/zap"
)

var (
	ErrBusy       = errors.New("a request is already in progress")
	ErrEmptyInput = errors.New("message is empty")
)

// ChatCompleter answers a free-text query given the full upstream context.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// LeadSubmitter delivers a lead record. It reports failure as an error.
type LeadSubmitter interface {
	SubmitLead(ctx context.Context, kind models.LeadKind, record map[string]string) error
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.logger = l } }

func WithOfficePhone(phone string) Option { return func(s *Session) { s.officePhone = phone } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// Session is the state of one chat widget: its messages, the open flag and
// the dialogue engine. At most one upstream call is outstanding at a time.
type Session struct {
	chat  ChatCompleter
	leads LeadSubmitter

	logger      *zap.Logger
	officePhone string
	now         func() time.Time

	mu      sync.Mutex
	entries []entry
	state   dialogue.State
	open    bool
	busy    bool
	// generation changes on Reset so late results are dropped.
	generation int
}

type entry struct {
	models.Message
	// answer marks replies produced by the assistant model.
	answer bool
}

func New(chat ChatCompleter, leads LeadSubmitter, opts ...Option) *Session {
	s := &Session{
		chat:        chat,
		leads:       leads,
		logger:      zap.NewNop(),
		officePhone: config.DefaultOfficePhone,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = []entry{s.greeting()}
	return s
}

func (s *Session) greeting() entry {
	return entry{Message: models.Message{Role: models.RoleAssistant, Content: assistant.Greeting, Timestamp: s.now()}}
}

func (s *Session) engine() dialogue.Engine {
	return dialogue.Engine{OfficePhone: s.officePhone}
}

// Messages returns a copy of the conversation in order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked()
}

func (s *Session) messagesLocked() []models.Message {
	out := make([]models.Message, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Message
	}
	return out
}

// Dialogue reports the kind being collected, if any.
func (s *Session) Dialogue() (models.LeadKind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Kind, s.state.Active()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) Open()  { s.setOpen(true) }
func (s *Session) Close() { s.setOpen(false) }

func (s *Session) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
}

func (s *Session) setOpen(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = v
}

// Reset truncates the conversation to the greeting and abandons any
// dialogue. Replies to calls issued before the reset are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []entry{s.greeting()}
	s.state = dialogue.State{}
	s.generation++
}

// StartDialogue is the explicit action that opens a guided dialogue.
func (s *Session) StartDialogue(ctx context.Context, kind models.LeadKind) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	state, effects := s.engine().Step(s.state, dialogue.Start{Kind: kind})
	s.state = state
	s.busy = true
	gen := s.generation
	s.mu.Unlock()

	s.run(ctx, gen, nil, effects)
	return nil
}

// Send appends the user's text and either answers it through the assistant
// or consumes it as a dialogue turn.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	history := s.messagesLocked()
	s.entries = append(s.entries, entry{Message: models.Message{Role: models.RoleUser, Content: text, Timestamp: s.now()}})
	state, effects := s.engine().Step(s.state, dialogue.UserText{Text: text})
	s.state = state
	s.busy = true
	gen := s.generation
	s.mu.Unlock()

	s.run(ctx, gen, history, effects)
	return nil
}

// run executes effects in order and clears the busy flag when done.
func (s *Session) run(ctx context.Context, gen int, history []models.Message, effects []dialogue.Effect) {
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		switch eff := eff.(type) {
		case dialogue.Reply:
			s.mu.Lock()
			if gen == s.generation {
				s.appendAssistant(eff.Text, false)
			}
			s.mu.Unlock()

		case dialogue.AskAssistant:
			s.ask(ctx, gen, history, eff.Text)

		case dialogue.SubmitLead:
			effects = append(effects, s.submit(ctx, gen, eff)...)
		}
	}
}

func (s *Session) appendAssistant(text string, answer bool) {
	s.entries = append(s.entries, entry{
		Message: models.Message{Role: models.RoleAssistant, Content: text, Timestamp: s.now()},
		answer:  answer,
	})
}

func (s *Session) ask(ctx context.Context, gen int, history []models.Message, query string) {
	reply, err := s.chat.CompleteChat(ctx, assistant.BuildMessages(s.officePhone, history, query))

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.logger.Warn("assistant query failed", zap.Error(err))
		s.appendAssistant(assistant.ConnectionApology(s.officePhone), false)
		return
	}
	s.appendAssistant(reply, true)
}

func (s *Session) submit(ctx context.Context, gen int, eff dialogue.SubmitLead) []dialogue.Effect {
	err := s.leads.SubmitLead(ctx, eff.Kind, dialogue.Payload(eff.Kind, eff.Record))
	if err != nil {
		s.logger.Warn("lead submission failed", zap.String("kind", string(eff.Kind)), zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	state, effects := s.engine().Step(s.state, dialogue.SubmitResult{Kind: eff.Kind, Record: eff.Record, OK: err == nil})
	s.state = state
	return effects
}

// Entry is a message as the widget renders it.
type Entry struct {
	models.Message
	Category category.Category `json:"category,omitempty"`
	Actions  []category.Action `json:"actions,omitempty"`
}

// Transcript renders the conversation. Replies from the assistant model get
// a category tag and follow-up actions; every other assistant text is
// general.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	entries := make([]entry, len(s.entries))
	copy(entries, s.entries)
	s.mu.Unlock()

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		r := Entry{Message: e.Message}
		if e.Role == models.RoleAssistant {
			r.Category = category.General
			if e.answer {
				r.Category = category.Classify(e.Content)
				r.Actions = category.Actions(r.Category)
			}
		}
		out = append(out, r)
	}
	return out
}

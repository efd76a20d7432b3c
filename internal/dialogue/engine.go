// Package dialogue implements the guided lead-capture dialogue as a pure
// state transition function. Effects are returned to the caller, which
// performs the network calls and feeds results back in as events.
package dialogue

import "github.com/RichardoC/dentalchat/internal/models"

// State is the engine state. The zero value is Idle.
type State struct {
	Kind models.LeadKind
	// Collecting is set from the prompt until the record is submitted.
	Collecting bool
	// Submitting is set while the lead-intake call is outstanding.
	Submitting bool
}

func (s State) Idle() bool { return !s.Collecting && !s.Submitting }

// Active reports whether user text belongs to the dialogue rather than the
// assistant.
func (s State) Active() bool { return s.Collecting }

type Event interface{ event() }

// Start is the explicit UI action that opens a dialogue.
type Start struct{ Kind models.LeadKind }

// UserText is a message typed by the user.
type UserText struct{ Text string }

// SubmitResult reports the outcome of a SubmitLead effect.
type SubmitResult struct {
	Kind   models.LeadKind
	Record Record
	OK     bool
}

func (Start) event()        {}
func (UserText) event()     {}
func (SubmitResult) event() {}

type Effect interface{ effect() }

// Reply appends an assistant message.
type Reply struct{ Text string }

// SubmitLead calls the lead-intake endpoint for Kind.
type SubmitLead struct {
	Kind   models.LeadKind
	Record Record
}

// AskAssistant forwards free text to the inference proxy.
type AskAssistant struct{ Text string }

func (Reply) effect()        {}
func (SubmitLead) effect()   {}
func (AskAssistant) effect() {}

// Engine holds the texts that depend on deployment.
type Engine struct {
	OfficePhone string
}

// Step applies one event.
func (e Engine) Step(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Start:
		if !ev.Kind.Valid() {
			return s, nil
		}
		// A flow already in progress is discarded.
		return State{Kind: ev.Kind, Collecting: true}, []Effect{Reply{Text: Prompt(ev.Kind)}}

	case UserText:
		if !s.Collecting {
			return s, []Effect{AskAssistant{Text: ev.Text}}
		}
		rec := ParseRecord(ev.Text)
		return State{Kind: s.Kind, Submitting: true}, []Effect{SubmitLead{Kind: s.Kind, Record: rec}}

	case SubmitResult:
		reply := Reply{Text: Apology(e.OfficePhone)}
		if ev.OK {
			reply = Reply{Text: Confirmation(ev.Kind, ev.Record)}
		}
		if s.Submitting && s.Kind == ev.Kind {
			s = State{}
		}
		return s, []Effect{reply}
	}
	return s, nil
}

package dialogue

import (
	"testing"

	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engine = Engine{OfficePhone: "(347) 344-5806"}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Record
	}{
		{"three segments", "Jane Doe, jane@example.com, 555-1234", Record{Name: "Jane Doe", Email: "jane@example.com", Contact: "555-1234"}},
		{"two segments", "Jane Doe, jane@example.com", Record{Name: "Jane Doe", Email: "jane@example.com"}},
		{"extra segments ignored", "A, b@c.d, 1, extra, more", Record{Name: "A", Email: "b@c.d", Contact: "1"}},
		{"one segment", "Jane", Record{Name: "Jane"}},
		{"no validation", "  x ,not-an-email,   ??? ", Record{Name: "x", Email: "not-an-email", Contact: "???"}},
		{"empty", "", Record{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRecord(tt.input))
		})
	}
}

func TestIdleRoutesFreeTextToAssistant(t *testing.T) {
	s, effects := engine.Step(State{}, UserText{Text: "What is Yomi?"})
	assert.True(t, s.Idle())
	assert.Equal(t, []Effect{AskAssistant{Text: "What is Yomi?"}}, effects)
}

func TestStartPromptsForFields(t *testing.T) {
	for _, kind := range models.LeadKinds {
		t.Run(string(kind), func(t *testing.T) {
			s, effects := engine.Step(State{}, Start{Kind: kind})
			assert.True(t, s.Active())
			assert.Equal(t, kind, s.Kind)
			require.Len(t, effects, 1)
			reply, ok := effects[0].(Reply)
			require.True(t, ok)
			assert.Equal(t, Prompt(kind), reply.Text)
			assert.Contains(t, reply.Text, "separated by")
		})
	}
	assert.Contains(t, Prompt(models.LeadAppointment), "name, email, and phone")
	assert.Contains(t, Prompt(models.LeadInsuranceCheck), "name, email, and insurance provider")
}

func TestStartIgnoresUnknownKind(t *testing.T) {
	s, effects := engine.Step(State{}, Start{Kind: "teeth-whitening"})
	assert.True(t, s.Idle())
	assert.Empty(t, effects)
}

func TestStartDiscardsActiveFlow(t *testing.T) {
	s, _ := engine.Step(State{}, Start{Kind: models.LeadAppointment})
	s, effects := engine.Step(s, Start{Kind: models.LeadInsuranceCheck})
	assert.Equal(t, State{Kind: models.LeadInsuranceCheck, Collecting: true}, s)
	assert.Equal(t, []Effect{Reply{Text: Prompt(models.LeadInsuranceCheck)}}, effects)

	s, effects = engine.Step(s, UserText{Text: "Ann, ann@x.com, Delta Dental"})
	assert.Equal(t, []Effect{SubmitLead{Kind: models.LeadInsuranceCheck, Record: Record{Name: "Ann", Email: "ann@x.com", Contact: "Delta Dental"}}}, effects)
	assert.True(t, s.Submitting)
}

func TestAppointmentRoundTrip(t *testing.T) {
	s, _ := engine.Step(State{}, Start{Kind: models.LeadAppointment})

	s, effects := engine.Step(s, UserText{Text: "Jane Doe, jane@example.com, 555-1234"})
	require.Len(t, effects, 1)
	submit, ok := effects[0].(SubmitLead)
	require.True(t, ok)
	assert.Equal(t, models.LeadAppointment, submit.Kind)
	assert.False(t, s.Active())

	s, effects = engine.Step(s, SubmitResult{Kind: submit.Kind, Record: submit.Record, OK: true})
	assert.True(t, s.Idle())
	require.Len(t, effects, 1)
	reply := effects[0].(Reply)
	assert.Contains(t, reply.Text, "Jane Doe")
	assert.Contains(t, reply.Text, "jane@example.com")
	assert.Contains(t, reply.Text, "555-1234")

	_, effects = engine.Step(s, UserText{Text: "thanks!"})
	assert.Equal(t, []Effect{AskAssistant{Text: "thanks!"}}, effects)
}

func TestFailedSubmitReturnsToIdle(t *testing.T) {
	s := State{Kind: models.LeadConsultation, Submitting: true}
	s, effects := engine.Step(s, SubmitResult{Kind: models.LeadConsultation, OK: false})
	assert.True(t, s.Idle())
	require.Len(t, effects, 1)
	assert.Contains(t, effects[0].(Reply).Text, "(347) 344-5806")
}

func TestStaleSubmitResultKeepsNewerFlow(t *testing.T) {
	s := State{Kind: models.LeadInsuranceCheck, Collecting: true}
	next, effects := engine.Step(s, SubmitResult{Kind: models.LeadAppointment, Record: Record{Name: "Bob"}, OK: true})
	assert.Equal(t, s, next)
	require.Len(t, effects, 1)
	assert.Contains(t, effects[0].(Reply).Text, "Bob")
}

func TestConfirmations(t *testing.T) {
	r := Record{Name: "Bob Lee", Email: "bob@x.com", Contact: "555-0000"}
	for _, kind := range models.LeadKinds {
		msg := Confirmation(kind, r)
		assert.Contains(t, msg, "Bob Lee", kind)
		assert.Contains(t, msg, "bob@x.com", kind)
	}
	assert.Contains(t, Confirmation(models.LeadInsuranceCheck, Record{Name: "A", Email: "a@b", Contact: "Aetna"}), "Aetna")
	assert.NotContains(t, Confirmation(models.LeadAppointment, Record{Name: "A", Email: "a@b"}), " or ")
}

func TestPayload(t *testing.T) {
	p := Payload(models.LeadAppointment, Record{Name: "Jane Doe", Email: "jane@example.com", Contact: "555-1234"})
	assert.Equal(t, map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "phone": "555-1234",
		"preferredDate": "", "preferredTime": "", "procedureType": "", "notes": "",
	}, p)

	p = Payload(models.LeadAppointment, Record{Name: "Jane Doe", Email: "jane@example.com"})
	_, hasPhone := p["phone"]
	assert.False(t, hasPhone)

	p = Payload(models.LeadInsuranceCheck, Record{Name: "A", Email: "a@b", Contact: "Aetna"})
	assert.Equal(t, "Aetna", p["insuranceProvider"])
	assert.Equal(t, "other", p["procedureType"])

	p = Payload(models.LeadInfoRequest, Record{Name: "A", Email: "a@b", Contact: "ignored"})
	assert.Equal(t, map[string]string{"name": "A", "email": "a@b", "topic": "yomi"}, p)

	assert.Equal(t, "other", Payload(models.LeadConsultation, Record{})["consultationType"])
}

func TestPath(t *testing.T) {
	for _, kind := range models.LeadKinds {
		assert.NotEmpty(t, Path(kind))
	}
	assert.Empty(t, Path("unknown"))
}

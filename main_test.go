package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/RichardoC/dentalchat/internal/assistant"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/RichardoC/dentalchat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	reply string
	leads []map[string]string
}

func (s *scripted) CompleteChat(context.Context, []models.ChatMessage) (string, error) {
	return s.reply, nil
}

func (s *scripted) SubmitLead(_ context.Context, _ models.LeadKind, record map[string]string) error {
	s.leads = append(s.leads, record)
	return nil
}

func TestRunTerminalChat(t *testing.T) {
	fake := &scripted{reply: "TMJ treatment relieves jaw pain."}
	sess := session.New(fake, fake)

	in := strings.NewReader(strings.Join([]string{
		"/schedule",
		"Jane Doe, jane@example.com, 555-1234",
		"",
		"Do you treat jaw pain?",
		"/bogus",
		"/quit",
		"never read",
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), sess, in, &out))

	text := out.String()
	assert.Contains(t, text, assistant.Greeting)
	assert.Contains(t, text, "name, email, and phone number")
	assert.Contains(t, text, "Thank you, Jane Doe")
	assert.Contains(t, text, "[TMJ Treatment] TMJ treatment relieves jaw pain.")
	assert.Contains(t, text, "Schedule | Consultation | Insurance")
	assert.Equal(t, 2, strings.Count(text, help))

	require.Len(t, fake.leads, 1)
	assert.Equal(t, "555-1234", fake.leads[0]["phone"])
	assert.Len(t, sess.Messages(), 6)
}

func TestRunReset(t *testing.T) {
	fake := &scripted{reply: "Hello."}
	sess := session.New(fake, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), sess, strings.NewReader("hi\n/reset\n"), &out))
	assert.Equal(t, 2, strings.Count(out.String(), assistant.Greeting))
	assert.Len(t, sess.Messages(), 1)
}

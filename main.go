// Command dentalchat is a terminal version of the website chat widget. It
// talks to a running server over HTTP.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/RichardoC/dentalchat/internal/client"
	"github.com/RichardoC/dentalchat/internal/config"
	"github.com/RichardoC/dentalchat/internal/models"
	"github.com/RichardoC/dentalchat/internal/session"
	"go.uber.org/zap"
)

var commands = map[string]models.LeadKind{
	"/schedule":  models.LeadAppointment,
	"/info":      models.LeadInfoRequest,
	"/consult":   models.LeadConsultation,
	"/insurance": models.LeadInsuranceCheck,
}

const help = "Commands: /schedule /info /consult /insurance /reset /quit"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(cfg.ServerURL)
	sess := session.New(c, c,
		session.WithLogger(logger),
		session.WithOfficePhone(cfg.OfficePhone))
	sess.Open()

	if err := run(ctx, sess, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("chat ended", zap.Error(err))
	}
}

// run reads one line per turn and prints whatever the session added.
func run(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, help)
	shown := render(out, sess.Transcript(), 0)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var err error
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/reset":
			sess.Reset()
			shown = render(out, sess.Transcript(), 0)
			continue
		case commands[line] != "":
			err = sess.StartDialogue(ctx, commands[line])
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, help)
			continue
		default:
			fmt.Fprintln(out, "...")
			err = sess.Send(ctx, line)
		}
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		shown = render(out, sess.Transcript(), shown)
	}
}

// render prints the assistant entries from index from onwards and returns
// the new transcript length. User lines are already on screen.
func render(out io.Writer, entries []session.Entry, from int) int {
	for _, e := range entries[from:] {
		if e.Role != models.RoleAssistant {
			continue
		}
		fmt.Fprintf(out, "[%s] %s\n", e.Category.Label(), e.Content)
		if len(e.Actions) > 0 {
			labels := make([]string, 0, len(e.Actions))
			for _, a := range e.Actions {
				labels = append(labels, a.Label)
			}
			fmt.Fprintf(out, "    %s\n", strings.Join(labels, " | "))
		}
	}
	return len(entries)
}

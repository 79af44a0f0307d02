// Package notify sends account notifications to portal users.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single outbound email
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers through the SendGrid v3 API
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

// NewSendGridMailer creates a SendGrid-backed mailer
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: "CarePoint",
		from:     from,
	}
}

// Send delivers the message. Non-2xx responses are reported as errors so the task is retried.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToEmail),
		msg.Text,
		msg.HTML,
	)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email (status %d): %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SendGrid key is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Msg("Email not sent (no mail provider configured)")
	return nil
}

// WelcomeMessage builds the message sent after registration
func WelcomeMessage(name, email, dashboardPath string) Message {
	greeting := "Welcome to CarePoint"
	if name != "" {
		greeting = fmt.Sprintf("Welcome to CarePoint, %s", name)
	}
	text := fmt.Sprintf("%s!\n\nYour account is ready. Sign in and open %s to get started.\n", greeting, dashboardPath)
	html := fmt.Sprintf("<p><strong>%s!</strong></p><p>Your account is ready. Sign in and open <code>%s</code> to get started.</p>", greeting, dashboardPath)

	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Your CarePoint account is ready",
		Text:    text,
		HTML:    html,
	}
}

package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"

	"hexagono/internal/config"
	"hexagono/internal/notify"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// SMTPTransport sends notification mails through the configured SMTP relay.
// Sends go through a circuit breaker so a dead relay fails fast.
type SMTPTransport struct {
	from     string
	host     string
	user     string
	password string
	addr     string
	cb       *CircuitBreaker
}

func NewSMTPTransport(cfg *config.Config, cb *CircuitBreaker) *SMTPTransport {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPTransport{
		from:     from,
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       cb,
	}
}

// NewMailTransport returns the SMTP transport, or a LogTransport when no
// SMTP host is configured.
func NewMailTransport(cfg *config.Config, cb *CircuitBreaker) notify.MailTransport {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("mailer: SMTP_HOST not set, mails will only be logged")
		return LogTransport{}
	}
	return NewSMTPTransport(cfg, cb)
}

func (m *SMTPTransport) build(msg notify.Message) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.from
	e.To = msg.To
	e.Subject = msg.Subject
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType); err != nil {
			return nil, fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
	}
	return e, nil
}

// Send delivers msg. The context is checked before dialing; net/smtp itself
// does not take one.
func (m *SMTPTransport) Send(ctx context.Context, msg notify.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: message without recipients")
	}
	e, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	send := func() error { return e.Send(m.addr, auth) }
	if m.cb == nil {
		return send()
	}
	return m.cb.Execute(send)
}

// IsRecipientRejection reports a permanent per-recipient refusal (SMTP 550-553).
// The relay answered, so the breaker does not count it.
func IsRecipientRejection(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code >= 550 && tpErr.Code <= 553
}

// LogTransport logs messages instead of sending them. Used in development.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, msg notify.Message) error {
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("mailer: mail not sent (no SMTP configured)")
	return nil
}

package transport

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/ttcmail/mailsend/internal/config"
	"github.com/ttcmail/mailsend/internal/message"
)

// SMTP submits messages to the configured mail server with mandatory
// TLS and PLAIN authentication.
type SMTP struct {
	cfg *config.Mail
}

// NewSMTP creates an SMTP transport bound to the run configuration.
func NewSMTP(cfg *config.Mail) *SMTP {
	return &SMTP{cfg: cfg}
}

// Send dials the mail server and submits the message. Every call uses
// a fresh connection; no connection is shared across recipients.
func (s *SMTP) Send(ctx context.Context, pm *message.PreparedMessage) error {
	client, err := mail.NewClient(s.cfg.Mailserver,
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("could not connect to mail server %s: %w", s.cfg.Mailserver, err)
	}
	if err := client.DialAndSendWithContext(ctx, pm.Msg); err != nil {
		return fmt.Errorf("could not send mail to %s: %w", pm.Recipient, err)
	}
	return nil
}

// Name returns the transport name.
func (s *SMTP) Name() string {
	return "smtp"
}

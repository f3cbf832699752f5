// Package message builds one send-ready mail per recipient from the
// shared run inputs.
package message

import (
	"bytes"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/ttcmail/mailsend/internal/config"
	"github.com/ttcmail/mailsend/internal/parser"
)

// PreparedMessage is a fully validated, recipient-specific send unit.
// Each one is owned by exactly one send worker; no state is shared
// between messages.
type PreparedMessage struct {
	Recipient string
	Msg       *mail.Msg
}

// BuildError records why a single recipient's message could not be
// built. It is collected and reported, never aborting the rest of the
// batch.
type BuildError struct {
	Recipient string
	Err       error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("%s: %v", e.Recipient, e.Err)
}

func (e BuildError) Unwrap() error {
	return e.Err
}

// Build constructs the message for one recipient. Addresses are
// validated in the order sender, reply-to, recipient; the first invalid
// one determines the error, which names the offending address string.
// The body becomes one part with the content's media type, followed by
// one application/octet-stream part per attachment in load order.
// Build performs no network I/O.
func Build(recipient string, content *parser.Content, cfg *config.Mail, attachments []parser.Attachment) (*PreparedMessage, error) {
	msg := mail.NewMsg()
	if err := msg.From(cfg.Sender); err != nil {
		return nil, invalidAddress(cfg.Sender, err)
	}
	if err := msg.ReplyTo(cfg.ReplyTo); err != nil {
		return nil, invalidAddress(cfg.ReplyTo, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, invalidAddress(recipient, err)
	}

	msg.Subject(content.Subject)
	msg.SetBodyString(bodyType(content.Type), content.Body)

	for _, att := range attachments {
		err := msg.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.TypeAppOctetStream))
		if err != nil {
			return nil, fmt.Errorf("could not attach %s: %w", att.Filename, err)
		}
	}

	return &PreparedMessage{Recipient: recipient, Msg: msg}, nil
}

// invalidAddress wraps an address parse failure so the report names the
// offending address instead of a generic failure.
func invalidAddress(addr string, err error) error {
	return fmt.Errorf("invalid email address %q: %w", addr, err)
}

// bodyType maps the parsed content type onto the media type of the
// body part.
func bodyType(t parser.ContentType) mail.ContentType {
	if t == parser.TypeHTML {
		return mail.TypeTextHTML
	}
	return mail.TypeTextPlain
}

// Package transport defines the delivery boundary for prepared
// messages and implements it over SMTP.
package transport

import (
	"context"

	"github.com/ttcmail/mailsend/internal/message"
)

// Transport is the interface delivery backends must implement. The
// orchestrator hands each prepared message to exactly one Send call.
type Transport interface {
	// Send delivers one prepared message. It returns an error if the
	// delivery fails.
	Send(ctx context.Context, pm *message.PreparedMessage) error

	// Name returns the human-readable name of this transport.
	Name() string
}

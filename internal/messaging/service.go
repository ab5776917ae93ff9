// Package messaging provides the message delivery abstraction between the
// session engine and the chat platform.
package messaging

import (
	"context"

	"github.com/aio-labs/aio-bot/internal/models"
)

// Default buffer size for the inbound event channel.
const DefaultChannelBufferSize = 100

// Deliverer is the minimal outbound contract. The reminder scheduler
// depends only on this.
type Deliverer interface {
	// SendMessage sends plain text to the user.
	SendMessage(ctx context.Context, userID string, body string) error
}

// Service defines a pluggable messaging channel. It produces demultiplexed
// inbound events tagged with a stable user identity and delivers the
// engine's replies.
type Service interface {
	Deliverer

	// SendReply delivers one engine reply (text, keyboard, or document).
	SendReply(ctx context.Context, userID string, reply models.Reply) error

	// Start begins background processing (polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the events channel.
	Stop() error

	// Events returns the channel of inbound events.
	Events() <-chan models.Event
}

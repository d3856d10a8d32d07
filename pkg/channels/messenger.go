package channels

import (
	"context"
	"errors"
)

// ErrMessageNotFound is returned by FetchMessage when the referenced message
// cannot be read.
var ErrMessageNotFound = errors.New("message not found")

// MessageRef identifies one message in a conversation.
type MessageRef struct {
	ConversationID string
	Timestamp      string
}

// Messenger is the outbound side of a chat platform as used by the pipeline.
// Implementations perform exactly one API call per method and never retry.
type Messenger interface {
	// FetchMessage returns the text of the message at ref.
	FetchMessage(ctx context.Context, ref MessageRef) (string, error)
	// PostMessage posts text as a reply in the thread anchored at threadTS.
	PostMessage(ctx context.Context, conversationID, threadTS, text string) (MessageRef, error)
	// UpdateMessage replaces the text of a message previously posted by this bot.
	UpdateMessage(ctx context.Context, ref MessageRef, text string) error
}

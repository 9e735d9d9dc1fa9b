// Package conversation provides durable storage for conversations and their
// messages.
//
// Responsibilities: create conversations, append role-attributed messages,
// and list a conversation's history in creation order. Messages are
// append-only; a conversation's messages are removed only by cascading delete
// of the conversation itself.
//
// Store is safe for concurrent use by multiple goroutines.
package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the referenced conversation does not exist.
// Returned by AppendMessage when the foreign-key constraint rejects a write.
var ErrNotFound = errors.New("conversation not found")

// ErrInvalidSender indicates a sender value outside the closed user/assistant set.
var ErrInvalidSender = errors.New("invalid sender")

// Sender values for messages. The set is closed: the messages.sender column
// is a PostgreSQL enum with exactly these two values.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ValidSender reports whether s is one of the two message sender values.
func ValidSender(s string) bool {
	return s == SenderUser || s == SenderAssistant
}

// Conversation represents a chat session. Immutable once created.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message represents a single role-attributed utterance within a conversation.
// Seq is the insertion-order tie-break for messages sharing a creation
// timestamp.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Seq            int64     `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the PostgreSQL error code raised when a message
// references a conversation that does not exist.
const foreignKeyViolation = "23503"

// DB is the subset of pgxpool.Pool the Store depends on.
// Defined by the consumer so tests can substitute implementations.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store manages conversation and message persistence in PostgreSQL.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a new Store. A nil logger falls back to slog.Default().
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// CreateConversation creates a new conversation with a generated identifier.
func (s *Store) CreateConversation(ctx context.Context) (*Conversation, error) {
	const q = `INSERT INTO conversations DEFAULT VALUES RETURNING id, created_at`

	var conv Conversation
	if err := s.db.QueryRow(ctx, q).Scan(&conv.ID, &conv.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID)
	return &conv, nil
}

// AppendMessage appends a message to a conversation.
// Returns ErrNotFound when conversationID references no existing conversation
// (the foreign-key constraint is the source of truth, there is no separate
// existence check) and ErrInvalidSender for senders outside user/assistant.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, sender, content string) (*Message, error) {
	if !ValidSender(sender) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}

	const q = `
		INSERT INTO messages (conversation_id, sender, content)
		VALUES ($1, $2, $3)
		RETURNING id, seq, created_at`

	msg := Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	}
	err := s.db.QueryRow(ctx, q, conversationID, sender, content).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, fmt.Errorf("appending message to %s: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("appending message to %s: %w", conversationID, err)
	}

	s.logger.Debug("appended message",
		"conversation_id", conversationID,
		"sender", sender,
		"message_id", msg.ID)
	return &msg, nil
}

// ListMessages returns all messages of a conversation in ascending creation
// order, ties broken by insertion order. An unknown conversation yields an
// empty slice, not an error.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	const q = `
		SELECT id, conversation_id, sender, content, seq, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := s.db.Query(ctx, q, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", conversationID, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", conversationID, err)
	}

	s.logger.Debug("listed messages", "conversation_id", conversationID, "count", len(messages))
	return messages, nil
}

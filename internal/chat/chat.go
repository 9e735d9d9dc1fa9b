// Package chat implements the message-handling pipeline: session resolution,
// turn persistence, context assembly, and delegation to the generation
// provider.
//
// The Service is stateless; all durable state lives in the stores it is
// wired to. Operations within one HandleMessage call run sequentially;
// interleaved turns from concurrent requests on the same session are an
// accepted consistency limitation, not guarded against.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/chatdesk/chatdesk/internal/conversation"
	"github.com/chatdesk/chatdesk/internal/llm"
)

// MaxMessageLength is the cap applied to inbound message text, in runes.
// Longer input is truncated silently; the caller is not informed.
const MaxMessageLength = 2000

// ErrEmptyMessage indicates the inbound message was absent or blank after
// trimming. Client fault, surfaced as a 400 at the HTTP boundary.
var ErrEmptyMessage = errors.New("message is required")

// ConversationStore is the persistence surface the Service depends on.
// Implemented by conversation.Store; tests substitute fakes.
type ConversationStore interface {
	CreateConversation(ctx context.Context) (*conversation.Conversation, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, sender, content string) (*conversation.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error)
}

// KnowledgeReader loads the knowledge text injected into generation context.
type KnowledgeReader interface {
	LoadContext(ctx context.Context) (string, error)
}

// Generator produces a reply from a turn sequence and knowledge text.
// Implemented by llm.Client.
type Generator interface {
	Generate(ctx context.Context, history []llm.Message, knowledgeContext string) (string, error)
}

// SessionRef identifies the session a message belongs to: either a new
// session to be created, or an existing one supplied by the caller.
// The zero value means "new session".
type SessionRef struct {
	id       uuid.UUID
	existing bool
}

// NewSession returns a SessionRef requesting creation of a fresh conversation.
func NewSession() SessionRef {
	return SessionRef{}
}

// ExistingSession returns a SessionRef for a caller-supplied conversation id.
// The id is used as-is; existence is checked only by the store's foreign-key
// constraint on the first write.
func ExistingSession(id uuid.UUID) SessionRef {
	return SessionRef{id: id, existing: true}
}

// Existing returns the referenced conversation id and whether one was supplied.
func (r SessionRef) Existing() (uuid.UUID, bool) {
	return r.id, r.existing
}

// Reply is the result of one handled message.
type Reply struct {
	Text      string
	SessionID uuid.UUID
}

// Turn is the read-only projection of a stored message used to rehydrate a
// client session.
type Turn struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Config contains the required dependencies for the Service.
type Config struct {
	Conversations ConversationStore
	Knowledge     KnowledgeReader
	Generator     Generator
	Logger        *slog.Logger
}

// validate checks that all required dependencies are present.
func (cfg Config) validate() error {
	if cfg.Conversations == nil {
		return errors.New("conversation store is required")
	}
	if cfg.Knowledge == nil {
		return errors.New("knowledge reader is required")
	}
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	return nil
}

// Service is the conversation orchestrator.
type Service struct {
	conversations ConversationStore
	knowledge     KnowledgeReader
	generator     Generator
	logger        *slog.Logger
}

// New creates a Service with the given dependencies.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		conversations: cfg.Conversations,
		knowledge:     cfg.Knowledge,
		generator:     cfg.Generator,
		logger:        logger,
	}, nil
}

// HandleMessage runs the full pipeline for one inbound message:
// validate → resolve session → persist user turn → reload history →
// load knowledge → generate → persist assistant turn → reply.
func (s *Service) HandleMessage(ctx context.Context, raw string, ref SessionRef) (Reply, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}
	text = truncate(text, MaxMessageLength)

	conversationID, ok := ref.Existing()
	if !ok {
		conv, err := s.conversations.CreateConversation(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("resolving session: %w", err)
		}
		conversationID = conv.ID
	}

	if _, err := s.conversations.AppendMessage(ctx, conversationID, conversation.SenderUser, text); err != nil {
		return Reply{}, fmt.Errorf("persisting user turn: %w", err)
	}

	// Read-after-write: the history must include the turn just persisted.
	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return Reply{}, fmt.Errorf("loading history: %w", err)
	}

	knowledgeContext, err := s.knowledge.LoadContext(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("loading knowledge context: %w", err)
	}

	replyText, err := s.generator.Generate(ctx, buildTurns(messages), knowledgeContext)
	if err != nil {
		return Reply{}, fmt.Errorf("generating reply: %w", err)
	}

	// A failed assistant-turn write does not withhold the reply; the
	// response may simply not be durably recorded.
	if _, err := s.conversations.AppendMessage(ctx, conversationID, conversation.SenderAssistant, replyText); err != nil {
		s.logger.Error("persisting assistant turn failed, returning reply anyway",
			"conversation_id", conversationID, "error", err)
	}

	return Reply{Text: replyText, SessionID: conversationID}, nil
}

// History returns the stored turns of a conversation in creation order.
// Unknown or empty sessions yield an empty slice, not an error.
func (s *Service) History(ctx context.Context, conversationID uuid.UUID) ([]Turn, error) {
	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, Turn{
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	return turns, nil
}

// buildTurns maps stored messages onto the provider turn sequence,
// preserving creation-time order.
func buildTurns(messages []conversation.Message) []llm.Message {
	turns := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Sender == conversation.SenderAssistant {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Content})
	}
	return turns
}

// truncate caps s at limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

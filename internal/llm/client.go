package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config contains the parameters for constructing a Client.
type Config struct {
	// APIKey is the provider credential. Empty selects degraded mode.
	APIKey string

	// Model is the chat completion model identifier.
	Model string

	// MaxReplyTokens is the response-length ceiling for live generation.
	MaxReplyTokens int

	// RequestTimeout bounds a single live generation call. Zero disables
	// the adapter-side deadline.
	RequestTimeout time.Duration

	// DemoDelay is the artificial latency of degraded-mode replies.
	// Zero applies DefaultDemoDelay; negative disables the delay (tests).
	DemoDelay time.Duration
}

// Client is the generation provider adapter. It is stateless per call and
// safe for concurrent use.
type Client struct {
	api       *openai.Client // nil in degraded mode
	model     string
	maxTokens int
	timeout   time.Duration
	demoDelay time.Duration
	logger    *slog.Logger
}

// New creates a Client. With an empty APIKey the client operates in degraded
// mode and never contacts the provider. A nil logger falls back to
// slog.Default().
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	demoDelay := cfg.DemoDelay
	switch {
	case demoDelay == 0:
		demoDelay = DefaultDemoDelay
	case demoDelay < 0:
		demoDelay = 0
	}

	c := &Client{
		model:     cfg.Model,
		maxTokens: cfg.MaxReplyTokens,
		timeout:   cfg.RequestTimeout,
		demoDelay: demoDelay,
		logger:    logger,
	}

	if cfg.APIKey == "" {
		logger.Warn("no provider credential configured, generation runs in degraded mode")
		return c
	}

	c.api = openai.NewClient(cfg.APIKey)
	return c
}

// Degraded reports whether the client operates without a provider credential.
func (c *Client) Degraded() bool {
	return c.api == nil
}

// Generate produces a reply for the given turn history and knowledge text.
//
// The returned error is non-nil only for context cancellation; every provider
// failure is absorbed into a degraded or apologetic reply. No retries are
// attempted; a single failed live call falls back immediately.
func (c *Client) Generate(ctx context.Context, history []Message, knowledgeContext string) (string, error) {
	if c.api == nil {
		return demoReply(ctx, c.demoDelay, history)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt(knowledgeContext),
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return c.fallback(ctx, err, history)
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("provider returned no choices")
		return apologyReply, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// fallback translates a live-call failure into a reply.
func (c *Client) fallback(ctx context.Context, err error, history []Message) (string, error) {
	// The caller going away is the one failure that propagates.
	if ctx.Err() != nil {
		return "", fmt.Errorf("generation aborted: %w", ctx.Err())
	}

	switch class := classifyError(err); class {
	case failureAuth, failureQuota, failureRateLimited:
		c.logger.Warn("provider failure, falling back to degraded reply",
			"class", class, "error", err)
		// The artificial delay already elapsed inside the failed call.
		return demoReply(ctx, 0, history)
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("generation call exceeded deadline", "timeout", c.timeout)
		} else {
			c.logger.Error("provider failure, returning apology", "error", err)
		}
		return apologyReply, nil
	}
}

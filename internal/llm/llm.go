// Package llm wraps the text-generation backend behind a small adapter.
//
// Two operating modes exist. With no API key configured the adapter runs in
// degraded (demo) mode: it waits a short artificial delay and echoes the most
// recent user turn with a demo indicator, so callers and tests can tell demo
// output from live output. With a key it calls the OpenAI chat-completions
// API, falling back to the demo reply on authentication, quota, and
// rate-limit failures and to a fixed apology on anything else. A generation
// failure never aborts the conversation turn.
package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Message roles in a turn sequence.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-attributed turn handed to the provider.
type Message struct {
	Role    string
	Content string
}

// demoPrefix marks degraded-mode output. Callers and tests rely on it to
// distinguish demo replies from live ones.
const demoPrefix = "Demo reply from LLM (echo) (set OPENAI_API_KEY to enable real responses): "

// apologyReply is returned for provider failures outside the known
// auth/quota/rate-limit set. Availability over fidelity: the caller gets a
// reply, never an error.
const apologyReply = "Sorry, I'm having trouble responding right now."

// DefaultDemoDelay simulates provider latency in degraded mode.
const DefaultDemoDelay = 400 * time.Millisecond

// systemPreamble is the fixed policy instruction for the generation provider.
// It is a contract of the pipeline, not configurable per call.
const systemPreamble = `You are a helpful support agent for a small e-commerce store.

Use the provided FAQ information to answer questions accurately.
If a question is not covered by the FAQs (for example, order status or tracking),
give general guidance such as checking the order confirmation email
or contacting customer support.

Do NOT invent order details, tracking numbers, or account-specific information.
Be clear, polite, and concise.`

// SystemPrompt returns the full system instruction block: the fixed policy
// preamble with the knowledge text appended.
func SystemPrompt(knowledgeContext string) string {
	return systemPreamble + "\n\nStore Information:\n" + knowledgeContext + "\n\nAnswer clearly and concisely."
}

// failureClass is the closed set of provider failures that select the
// degraded-mode fallback instead of the apology reply.
type failureClass int

const (
	failureOther failureClass = iota
	failureAuth               // auth_error
	failureQuota              // quota_exhausted
	failureRateLimited        // rate_limited
)

func (f failureClass) String() string {
	switch f {
	case failureAuth:
		return "auth_error"
	case failureQuota:
		return "quota_exhausted"
	case failureRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// classifyError maps a provider error onto the failure taxonomy.
// Known classes fall back to the degraded echo; everything else, including
// a deadline exceeded on the bounded request, yields the apology reply.
func classifyError(err error) failureClass {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return failureOther
	}

	if code, ok := apiErr.Code.(string); ok {
		switch code {
		case "invalid_api_key":
			return failureAuth
		case "insufficient_quota":
			return failureQuota
		}
	}

	switch apiErr.HTTPStatusCode {
	case 401:
		return failureAuth
	case 429:
		return failureRateLimited
	}

	return failureOther
}

// lastUserContent returns the content of the most recent user turn, or ""
// when the history holds none.
func lastUserContent(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}

// demoReply produces the deterministic degraded-mode output after the
// configured artificial delay. Only context cancellation can interrupt it.
func demoReply(ctx context.Context, delay time.Duration, history []Message) (string, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return demoPrefix + lastUserContent(history), nil
}

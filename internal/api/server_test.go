package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk/chatdesk/internal/chat"
)

// fakeChat is a canned ChatService for handler tests.
type fakeChat struct {
	reply      chat.Reply
	handleErr  error
	turns      []chat.Turn
	historyErr error

	gotRaw string
	gotRef chat.SessionRef
	gotID  uuid.UUID
}

func (f *fakeChat) HandleMessage(ctx context.Context, raw string, ref chat.SessionRef) (chat.Reply, error) {
	f.gotRaw = raw
	f.gotRef = ref
	if strings.TrimSpace(raw) == "" {
		return chat.Reply{}, chat.ErrEmptyMessage
	}
	return f.reply, f.handleErr
}

func (f *fakeChat) History(ctx context.Context, conversationID uuid.UUID) ([]chat.Turn, error) {
	f.gotID = conversationID
	return f.turns, f.historyErr
}

func newTestServer(t *testing.T, svc ChatService, corsOrigins ...string) http.Handler {
	t.Helper()
	if corsOrigins == nil {
		corsOrigins = []string{"*"}
	}
	srv, err := NewServer(ServerConfig{Chat: svc, CORSOrigins: corsOrigins})
	require.NoError(t, err)
	return srv.Handler()
}

func TestNewServer_RequiresChatService(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestMessage_NewSession(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	fake := &fakeChat{reply: chat.Reply{Text: "Happy to help!", SessionID: sessionID}}
	handler := newTestServer(t, fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"message":"Where is my order?"}`))
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Reply     string `json:"reply"`
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Happy to help!", resp.Reply)
	assert.Equal(t, sessionID.String(), resp.SessionID)

	_, existing := fake.gotRef.Existing()
	assert.False(t, existing)
}

func TestMessage_ExistingSession(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	fake := &fakeChat{reply: chat.Reply{Text: "ok", SessionID: sessionID}}
	handler := newTestServer(t, fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"message":"hi","sessionId":"`+sessionID.String()+`"}`))
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got, existing := fake.gotRef.Existing()
	assert.True(t, existing)
	assert.Equal(t, sessionID, got)
}

func TestMessage_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"message":`},
		{"missing message", `{}`},
		{"blank message", `{"message":"   "}`},
		{"malformed session id", `{"message":"hi","sessionId":"not-a-uuid"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := newTestServer(t, &fakeChat{})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(tt.body))
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestMessage_ServiceFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeChat{handleErr: errors.New("database down")}
	handler := newTestServer(t, fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"message":"hi"}`))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail must not leak to the client.
	assert.NotContains(t, rec.Body.String(), "database down")
}

func TestHistory(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	fake := &fakeChat{turns: []chat.Turn{
		{Sender: "user", Content: "Hi", CreatedAt: "2026-08-28T10:00:00.000Z"},
		{Sender: "assistant", Content: "Hello!", CreatedAt: "2026-08-28T10:00:01.000Z"},
	}}
	handler := newTestServer(t, fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/history/"+sessionID.String(), nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sessionID, fake.gotID)

	var turns []chat.Turn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Sender)
	assert.Equal(t, "Hello!", turns[1].Content)
}

func TestHistory_EmptySessionIsEmptyArray(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeChat{turns: []chat.Turn{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/history/"+uuid.NewString(), nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHistory_MalformedID(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeChat{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/history/not-a-uuid", nil)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoot(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeChat{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &fakeChat{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// No pool wired, so readiness reports unavailable.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("wildcard", func(t *testing.T) {
		t.Parallel()

		handler := newTestServer(t, &fakeChat{}, "*")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://example.com")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin echoed", func(t *testing.T) {
		t.Parallel()

		handler := newTestServer(t, &fakeChat{}, "https://app.example.com")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no header", func(t *testing.T) {
		t.Parallel()

		handler := newTestServer(t, &fakeChat{}, "https://app.example.com")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		handler := newTestServer(t, &fakeChat{}, "*")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/chat/message", nil)
		req.Header.Set("Origin", "https://example.com")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(ServerConfig{Chat: &fakeChat{}})
	require.NoError(t, err)

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.recoveryMiddleware(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

//go:build integration

package conversation_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk/chatdesk/internal/conversation"
	"github.com/chatdesk/chatdesk/internal/log"
	"github.com/chatdesk/chatdesk/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := conversation.NewStore(tdb.Pool, log.NewNop())

	t.Run("create conversation", func(t *testing.T) {
		conv, err := store.CreateConversation(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, conv.ID)
		assert.False(t, conv.CreatedAt.IsZero())
	})

	t.Run("append and list preserve insertion order", func(t *testing.T) {
		conv, err := store.CreateConversation(ctx)
		require.NoError(t, err)

		// Rapid inserts can share a created_at timestamp; ordering must
		// still be stable.
		for i := range 10 {
			sender := conversation.SenderUser
			if i%2 == 1 {
				sender = conversation.SenderAssistant
			}
			_, err := store.AppendMessage(ctx, conv.ID, sender, fmt.Sprintf("turn %d", i))
			require.NoError(t, err)
		}

		msgs, err := store.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 10)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("turn %d", i), m.Content)
		}
	})

	t.Run("append to unknown conversation", func(t *testing.T) {
		_, err := store.AppendMessage(ctx, uuid.New(), conversation.SenderUser, "hello")
		assert.ErrorIs(t, err, conversation.ErrNotFound)
	})

	t.Run("append with invalid sender", func(t *testing.T) {
		conv, err := store.CreateConversation(ctx)
		require.NoError(t, err)

		_, err = store.AppendMessage(ctx, conv.ID, "system", "nope")
		assert.ErrorIs(t, err, conversation.ErrInvalidSender)
	})

	t.Run("list unknown conversation is empty", func(t *testing.T) {
		msgs, err := store.ListMessages(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("deleting a conversation cascades to messages", func(t *testing.T) {
		conv, err := store.CreateConversation(ctx)
		require.NoError(t, err)
		_, err = store.AppendMessage(ctx, conv.ID, conversation.SenderUser, "soon gone")
		require.NoError(t, err)

		_, err = tdb.Pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", conv.ID)
		require.NoError(t, err)

		msgs, err := store.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}

//go:build integration

package knowledge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdesk/chatdesk/internal/knowledge"
	"github.com/chatdesk/chatdesk/internal/log"
	"github.com/chatdesk/chatdesk/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := knowledge.NewStore(tdb.Pool, log.NewNop())

	t.Run("create records entry and change log", func(t *testing.T) {
		entry, err := store.Create(ctx, "shipping", "Do you ship abroad?", "Not yet.")
		require.NoError(t, err)
		assert.Equal(t, 1, entry.Version)
		assert.True(t, entry.Active)

		var action, changedBy string
		err = tdb.Pool.QueryRow(ctx,
			"SELECT action, changed_by FROM faq_change_logs WHERE faq_id = $1", entry.ID,
		).Scan(&action, &changedBy)
		require.NoError(t, err)
		assert.Equal(t, knowledge.ActionCreate, action)
		assert.Equal(t, knowledge.DefaultActor, changedBy)
	})

	t.Run("inactive entries are excluded from context", func(t *testing.T) {
		_, err := tdb.Pool.Exec(ctx, "DELETE FROM faqs")
		require.NoError(t, err)

		_, err = store.Create(ctx, "returns", "How do I return an item?", "Within 30 days.")
		require.NoError(t, err)
		_, err = store.Create(ctx, "returns", "Are returns free?", "Yes.")
		require.NoError(t, err)
		retired, err := store.Create(ctx, "support", "Old policy?", "Obsolete.")
		require.NoError(t, err)

		_, err = tdb.Pool.Exec(ctx, "UPDATE faqs SET is_active = FALSE WHERE id = $1", retired.ID)
		require.NoError(t, err)

		context, err := store.LoadContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(context, "Q: "))
		assert.Equal(t, 2, strings.Count(context, "A: "))
		assert.NotContains(t, context, "Old policy?")
	})

	t.Run("seed loads default entries", func(t *testing.T) {
		_, err := tdb.Pool.Exec(ctx, "DELETE FROM faqs")
		require.NoError(t, err)

		require.NoError(t, store.Seed(ctx, knowledge.DefaultSeed()))

		entries, err := store.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, len(knowledge.DefaultSeed()))
	})
}

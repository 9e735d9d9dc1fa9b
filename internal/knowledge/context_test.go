package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildContext(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields empty string", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, BuildContext(nil))
		assert.Empty(t, BuildContext([]Entry{}))
	})

	t.Run("single entry", func(t *testing.T) {
		t.Parallel()

		got := BuildContext([]Entry{
			{Question: "Do you ship to the USA?", Answer: "Yes, 5-7 business days."},
		})
		assert.Equal(t, "Q: Do you ship to the USA?\nA: Yes, 5-7 business days.", got)
	})

	t.Run("entries joined by blank line", func(t *testing.T) {
		t.Parallel()

		got := BuildContext([]Entry{
			{Question: "Q1", Answer: "A1"},
			{Question: "Q2", Answer: "A2"},
		})

		assert.Equal(t, "Q: Q1\nA: A1\n\nQ: Q2\nA: A2", got)
		assert.Equal(t, 2, strings.Count(got, "Q: "))
		assert.Equal(t, 2, strings.Count(got, "A: "))
	})
}

func TestDefaultSeed(t *testing.T) {
	t.Parallel()

	entries := DefaultSeed()
	assert.Len(t, entries, 5)
	for _, e := range entries {
		assert.NotEmpty(t, e.Category)
		assert.NotEmpty(t, e.Question)
		assert.NotEmpty(t, e.Answer)
	}
}

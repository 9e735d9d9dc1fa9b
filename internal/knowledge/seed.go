package knowledge

import (
	"context"
	"fmt"
)

// SeedEntry is one question/answer pair to load into an empty knowledge base.
type SeedEntry struct {
	Category string
	Question string
	Answer   string
}

// DefaultSeed is the initial FAQ set for the support store.
func DefaultSeed() []SeedEntry {
	return []SeedEntry{
		{
			Category: "shipping",
			Question: "Do you ship internationally?",
			Answer:   "Yes, we ship worldwide. International delivery typically takes 7-14 business days.",
		},
		{
			Category: "shipping",
			Question: "Do you ship to the USA?",
			Answer:   "Yes, we ship to the USA. Delivery usually takes 5-7 business days.",
		},
		{
			Category: "returns",
			Question: "What is your return policy?",
			Answer:   "We offer a 30-day return policy for unused items in original packaging.",
		},
		{
			Category: "returns",
			Question: "How long do refunds take?",
			Answer:   "Refunds are processed within 5 business days after inspection.",
		},
		{
			Category: "support",
			Question: "What are your support hours?",
			Answer:   "Our support team is available Monday to Friday, 9 AM to 6 PM IST.",
		},
	}
}

// Seed inserts the given entries, recording a create action for each.
func (s *Store) Seed(ctx context.Context, entries []SeedEntry) error {
	for _, e := range entries {
		if _, err := s.Create(ctx, e.Category, e.Question, e.Answer); err != nil {
			return fmt.Errorf("seeding entry %q: %w", e.Question, err)
		}
	}
	s.logger.Info("seeded knowledge entries", "count", len(entries))
	return nil
}

package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the Store depends on.
// Defined by the consumer so tests can substitute implementations.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store reads and seeds knowledge entries in PostgreSQL.
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

// ListActive returns all entries with the active flag set, in stable
// store-defined order (creation time, then id). The order carries no
// semantic weight for context assembly.
func (s *Store) ListActive(ctx context.Context) ([]Entry, error) {
	const q = `
		SELECT id, category, question, answer, version, is_active, created_at
		FROM faqs
		WHERE is_active = TRUE
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing active knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Category, &e.Question, &e.Answer, &e.Version, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing active knowledge entries: %w", err)
	}

	s.logger.Debug("listed active knowledge entries", "count", len(entries))
	return entries, nil
}

// LoadContext returns the knowledge text handed to generation: one
// "Q: ...\nA: ..." block per active entry, blocks joined by a blank line.
// No active entries yields an empty string, not an error.
func (s *Store) LoadContext(ctx context.Context) (string, error) {
	entries, err := s.ListActive(ctx)
	if err != nil {
		return "", err
	}
	return BuildContext(entries), nil
}

// BuildContext formats entries into the Q/A text block fed to the
// generation provider.
func BuildContext(entries []Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return strings.Join(blocks, "\n\n")
}

// Create inserts a new active version-1 entry and records a create action in
// the change log. This is the seeding path; no update, delete, or rollback
// operations are exposed here.
func (s *Store) Create(ctx context.Context, category, question, answer string) (*Entry, error) {
	const insertEntry = `
		INSERT INTO faqs (category, question, answer)
		VALUES ($1, $2, $3)
		RETURNING id, version, is_active, created_at`

	e := Entry{
		Category: category,
		Question: question,
		Answer:   answer,
	}
	if err := s.db.QueryRow(ctx, insertEntry, category, question, answer).
		Scan(&e.ID, &e.Version, &e.Active, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating knowledge entry: %w", err)
	}

	const insertLog = `
		INSERT INTO faq_change_logs (faq_id, action, new_version, changed_by)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.Exec(ctx, insertLog, e.ID, ActionCreate, e.Version, DefaultActor); err != nil {
		return nil, fmt.Errorf("recording create for entry %s: %w", e.ID, err)
	}

	s.logger.Debug("created knowledge entry", "id", e.ID, "category", category)
	return &e, nil
}

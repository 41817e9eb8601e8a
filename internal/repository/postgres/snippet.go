package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"parley/internal/domain/snippet"
	"parley/pkg/errors"
)

// Compile-time check
var _ snippet.Repository = (*SnippetRepository)(nil)

// SnippetRepository implements snippet.Repository using sqlx and pgvector
type SnippetRepository struct {
	db DBTX
}

// NewSnippetRepository creates a new snippet repository
func NewSnippetRepository(db DBTX) *SnippetRepository {
	return &SnippetRepository{db: db}
}

// Store inserts a new snippet
func (r *SnippetRepository) Store(ctx context.Context, s *snippet.Snippet) error {
	query := `
		INSERT INTO snippets (
			id, clause_key, stage, region, perspective,
			content, metadata, confidence, embedding
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ClauseKey, s.Stage, s.Region, s.Perspective,
		s.Content, s.Metadata, s.Confidence, s.Embedding,
	)
	if err != nil {
		return errors.Wrap(err, "store snippet")
	}
	return nil
}

// Search returns matching snippets, ranked by cosine similarity when an
// embedding is supplied and by recency otherwise
func (r *SnippetRepository) Search(ctx context.Context, q snippet.SearchQuery) ([]*snippet.Snippet, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 3
	}

	conditions := []string{"clause_key = $1", "stage = $2", "region = $3"}
	args := []interface{}{q.ClauseKey, q.Stage, q.Region}

	if q.Perspective != "" {
		args = append(args, q.Perspective)
		conditions = append(conditions, fmt.Sprintf("perspective IN ($%d, 'neutral')", len(args)))
	}

	orderBy := "created_at DESC"
	if q.Embedding != nil {
		args = append(args, *q.Embedding)
		orderBy = fmt.Sprintf("embedding <=> $%d", len(args))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, clause_key, stage, region, perspective,
		       content, metadata, confidence, embedding, created_at
		FROM snippets
		WHERE %s
		ORDER BY %s
		LIMIT $%d`,
		strings.Join(conditions, " AND "), orderBy, len(args),
	)

	var snippets []*snippet.Snippet
	if err := r.db.SelectContext(ctx, &snippets, query, args...); err != nil {
		return nil, errors.Wrap(err, "search snippets")
	}
	return snippets, nil
}

// GetByIDs retrieves snippets by id, preserving input order
func (r *SnippetRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*snippet.Snippet, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, clause_key, stage, region, perspective,
		       content, metadata, confidence, embedding, created_at
		FROM snippets
		WHERE id IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	var rows []*snippet.Snippet
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "get snippets by ids")
	}

	byID := make(map[uuid.UUID]*snippet.Snippet, len(rows))
	for _, s := range rows {
		byID[s.ID] = s
	}
	ordered := make([]*snippet.Snippet, 0, len(rows))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

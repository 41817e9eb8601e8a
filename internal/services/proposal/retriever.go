package proposal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"parley/internal/adapters/embeddings"
	"parley/internal/domain/clause"
	"parley/internal/domain/snippet"
	"parley/pkg/logger"
)

// Retriever fetches supporting citations for proposals from the snippet
// store. Retrieval is best effort: embedding failures fall back to
// recency-ordered filtering, store failures degrade to no citations.
// A proposal is never blocked on retrieval.
type Retriever struct {
	snippets snippet.Repository
	embedder embeddings.Provider
	cap      int
	timeout  time.Duration
	log      *logger.Logger
}

// NewRetriever creates a snippet retriever. embedder may be nil, in
// which case results are ordered by recency only.
func NewRetriever(snippets snippet.Repository, embedder embeddings.Provider, cap int, timeout time.Duration) *Retriever {
	if cap <= 0 {
		cap = 3
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Retriever{
		snippets: snippets,
		embedder: embedder,
		cap:      cap,
		timeout:  timeout,
		log:      logger.Get().With("component", "snippet_retriever"),
	}
}

// Citations returns up to cap snippet ids supporting one side's stance
// on a clause. Never returns an error.
func (r *Retriever) Citations(ctx context.Context, key clause.Key, stage, region string, perspective snippet.Perspective) []uuid.UUID {
	if r == nil || r.snippets == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := snippet.SearchQuery{
		ClauseKey:   key,
		Stage:       stage,
		Region:      region,
		Perspective: perspective,
		Limit:       r.cap,
	}

	if r.embedder != nil {
		text := fmt.Sprintf("%s clause, %s stage, %s, %s position", key, stage, region, perspective)
		if emb, err := r.embedder.GenerateEmbedding(ctx, text); err == nil {
			vec := pgvector.NewVector(emb)
			query.Embedding = &vec
		} else {
			r.log.Warn("Embedding failed, falling back to recency order",
				"clause", key, "error", err)
		}
	}

	results, err := r.snippets.Search(ctx, query)
	if err != nil {
		r.log.Warn("Snippet search failed, proposing without citations",
			"clause", key, "error", err)
		return nil
	}

	ids := make([]uuid.UUID, 0, len(results))
	for _, s := range results {
		ids = append(ids, s.ID)
	}
	return ids
}

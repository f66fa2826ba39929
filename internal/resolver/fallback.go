package resolver

import (
	"context"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/metrics"
	"github.com/medresolve/medkb-go/internal/vectorindex"
)

// fallback embeds the entity, searches the vector index, and resolves the
// nearest nodes to display names. An embedding failure yields an empty
// slice; the caller must not escalate further for this entity.
func (r *Resolver) fallback(ctx context.Context, entity string, topN int) []apptype.SimilarityCandidate {
	if r.embedder == nil || r.index == nil {
		r.log.Debug("similarity fallback disabled", "entity", entity)
		return nil
	}

	done := metrics.TimeOp("vector_search")
	success := false
	defer func() { done(success) }()

	vecs, err := r.embedder.Embed(ctx, []string{entity})
	if err != nil || len(vecs) != 1 {
		r.log.Warn("embedding unavailable, abandoning fallback",
			"entity", entity, "error", err)
		return nil
	}

	// Stored vectors are unit-normalized, so normalizing the query makes
	// the index's inner product a cosine similarity.
	query := vectorindex.Normalize(vecs[0])
	scores, positions := r.index.Nearest(query, topN)
	if len(positions) == 0 {
		return nil
	}

	ids := make([]string, len(positions))
	for i, pos := range positions {
		ids[i] = r.index.IDAt(pos)
	}

	names, err := r.graph.NamesFor(ctx, ids)
	if err != nil {
		r.log.Warn("candidate name resolution failed, using placeholders",
			"entity", entity, "error", err)
		names = nil
	}

	candidates := make([]apptype.SimilarityCandidate, len(positions))
	for i := range positions {
		name, ok := names[ids[i]]
		if !ok || name == "" {
			name = NameNotFound
		}
		candidates[i] = apptype.SimilarityCandidate{
			NodeIndex:  ids[i],
			NodeName:   name,
			Similarity: scores[i],
			Rank:       i + 1,
		}
	}

	success = true
	return candidates
}

// Package resolver implements multi-source entity resolution: exact
// terminology lookup and graph path traversal first, vector similarity
// as the fallback when either primary source comes up empty.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/metrics"
)

// NameNotFound is the display placeholder for fallback candidates whose
// node carries no name in the knowledge graph.
const NameNotFound = "(name not found)"

// TerminologySource answers exact vocabulary lookups. Lookup never fails
// past its boundary; degraded calls return what was gathered.
type TerminologySource interface {
	Lookup(ctx context.Context, term string, maxConcepts int) []apptype.Concept
}

// GraphSource answers path and name queries against the knowledge graph.
type GraphSource interface {
	FindPaths(ctx context.Context, ref apptype.NodeRef, k int) ([]apptype.Path, time.Duration, error)
	NamesFor(ctx context.Context, ids []string) (map[string]string, error)
}

// EmbeddingSource produces one dense vector per input text.
// embeddings.Provider satisfies this.
type EmbeddingSource interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// VectorIndex answers nearest-neighbor queries over unit vectors.
// vectorindex.Index satisfies this.
type VectorIndex interface {
	Nearest(query []float32, n int) (scores []float64, positions []int)
	IDAt(pos int) string
}

// Options holds the decision-procedure knobs.
type Options struct {
	// HopCount is the exact path length k for graph traversal.
	HopCount int
	// TopN is how many nearest neighbors the fallback considers.
	TopN int
	// MaxConcepts bounds the primary terminology lookup.
	MaxConcepts int
	// AdmissionThreshold is the minimum similarity for a non-top-ranked
	// candidate to be processed.
	AdmissionThreshold float64
}

func (o Options) withDefaults() Options {
	if o.HopCount < 1 {
		o.HopCount = 1
	}
	if o.TopN < 1 {
		o.TopN = 5
	}
	if o.MaxConcepts < 1 {
		o.MaxConcepts = 1
	}
	if o.AdmissionThreshold == 0 {
		o.AdmissionThreshold = 0.9
	}
	return o
}

// Resolver runs the per-entity decision procedure. embedder and index may
// be nil, which disables the similarity fallback.
type Resolver struct {
	terms    TerminologySource
	graph    GraphSource
	embedder EmbeddingSource
	index    VectorIndex
	opts     Options
	log      *slog.Logger
}

// New assembles a Resolver from its collaborators.
func New(terms TerminologySource, graph GraphSource, embedder EmbeddingSource, index VectorIndex, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		terms:    terms,
		graph:    graph,
		embedder: embedder,
		index:    index,
		opts:     opts.withDefaults(),
		log:      logger,
	}
}

// Resolve maps one entity mention to the knowledge base. Primary-source
// success (concepts and paths both non-empty) returns immediately;
// otherwise the similarity fallback supplies candidates and the primary
// lookups are re-run against the admitted ones.
func (r *Resolver) Resolve(ctx context.Context, entity string) apptype.EntityResolution {
	done := metrics.TimeResolve()

	res := apptype.EntityResolution{Entity: entity}
	res.Concepts = r.terms.Lookup(ctx, entity, r.opts.MaxConcepts)
	res.Paths = r.findPaths(ctx, apptype.ByName(entity))

	if len(res.Concepts) > 0 && len(res.Paths) > 0 {
		done(false)
		return res
	}

	res.FallbackUsed = true
	candidates := r.fallback(ctx, entity, r.opts.TopN)
	if len(candidates) == 0 {
		// Embedding unavailable or index empty: report whatever the
		// primary sources produced, possibly nothing.
		done(true)
		return res
	}

	// The top similarity hit is authoritative: iteration never outlives
	// rank 1. Lower-ranked candidates are processed only when admitted by
	// the threshold and encountered first.
	var processed []apptype.SimilarityCandidate
	for _, cand := range candidates {
		admitted := cand.Rank == 1 || cand.Similarity >= r.opts.AdmissionThreshold
		if admitted {
			if cand.NodeName != NameNotFound {
				cand.Concepts = r.terms.Lookup(ctx, cand.NodeName, r.opts.MaxConcepts)
			}
			cand.Paths = r.findPaths(ctx, apptype.ByIndex(cand.NodeIndex))
			processed = append(processed, cand)
		}
		if cand.Rank == 1 {
			break
		}
	}
	res.Candidates = processed

	done(true)
	return res
}

// Candidates exposes the similarity search on its own: the text is
// embedded and the nearest nodes returned with display names, without the
// per-candidate concept and path lookups. topN < 1 falls back to the
// configured value.
func (r *Resolver) Candidates(ctx context.Context, text string, topN int) []apptype.SimilarityCandidate {
	if topN < 1 {
		topN = r.opts.TopN
	}
	return r.fallback(ctx, text, topN)
}

// findPaths downgrades graph service failures to an empty result. An
// unreachable graph must not abort the entity's resolution.
func (r *Resolver) findPaths(ctx context.Context, ref apptype.NodeRef) []apptype.Path {
	paths, elapsed, err := r.graph.FindPaths(ctx, ref, r.opts.HopCount)
	if err != nil {
		r.log.Warn("graph path query degraded to empty result",
			"ref", ref, "hops", r.opts.HopCount, "error", err)
		return nil
	}
	r.log.Debug("graph path query finished",
		"ref", ref, "hops", r.opts.HopCount, "paths", len(paths), "elapsed", elapsed)
	return paths
}

// Package resolve provides a library-first API for medical entity
// resolution without any transport attached.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/config"
	"github.com/medresolve/medkb-go/internal/embeddings"
	"github.com/medresolve/medkb-go/internal/extraction"
	"github.com/medresolve/medkb-go/internal/graph"
	"github.com/medresolve/medkb-go/internal/resolver"
	"github.com/medresolve/medkb-go/internal/termcache"
	"github.com/medresolve/medkb-go/internal/terminology"
	"github.com/medresolve/medkb-go/internal/vectorindex"
)

// Service wires the collaborators into a ready-to-use resolution session.
type Service struct {
	resolver  *resolver.Resolver
	extractor extraction.Extractor
	graphs    *graph.PathFinder
	terms     *terminology.Client
	client    graph.Client
	cache     *termcache.Store
	log       *slog.Logger
}

// NewService performs the setup phase: graph connectivity, vector index
// load, cache open. Failures here are fatal by design; the resolution
// session never starts on a half-initialized backend.
func NewService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("connect knowledge graph: %w", err)
	}

	var index *vectorindex.Index
	if cfg.Index.VectorsPath != "" && cfg.Index.NodeIDsPath != "" {
		index, err = vectorindex.Load(cfg.Index.VectorsPath, cfg.Index.NodeIDsPath)
		if err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		logger.Info("vector index loaded",
			"vectors", index.Len(), "dims", index.Dims())
	} else {
		logger.Warn("vector index not configured, similarity fallback disabled")
	}

	var defCache terminology.DefinitionCache
	var store *termcache.Store
	if cfg.Cache.Path != "" {
		store, err = termcache.NewStore(cfg.Cache.Path)
		if err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("open definition cache: %w", err)
		}
		defCache = store
	} else {
		defCache = termcache.NewMemoryCache()
	}

	terms := terminology.NewClient(cfg.Terminology, logger, defCache)
	finder := graph.NewPathFinder(client)

	var embedder resolver.EmbeddingSource
	if p := embeddings.NewFromEnv(); p != nil {
		embedder = p
		logger.Info("embeddings provider configured", "provider", p.Name(), "dims", p.Dimensions())
	}

	var vindex resolver.VectorIndex
	if index != nil {
		vindex = index
	}

	core := resolver.New(terms, finder, embedder, vindex, resolver.Options{
		HopCount:           cfg.Resolver.HopCount,
		TopN:               cfg.Resolver.TopN,
		MaxConcepts:        cfg.Resolver.MaxConcepts,
		AdmissionThreshold: cfg.Resolver.AdmissionThreshold,
	}, logger)

	return &Service{
		resolver:  core,
		extractor: extraction.NewFromEnv(),
		graphs:    finder,
		terms:     terms,
		client:    client,
		cache:     store,
		log:       logger,
	}, nil
}

// Close releases the graph connection and cache handle.
func (s *Service) Close(ctx context.Context) error {
	var firstErr error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.client.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ResolveEntity resolves one entity mention.
func (s *Service) ResolveEntity(ctx context.Context, entity string) apptype.EntityResolution {
	return s.resolver.Resolve(ctx, entity)
}

// ResolveQuestion extracts the entities of a question and resolves each
// in turn. Extraction failure is the caller's to handle; resolution of
// individual entities never fails.
func (s *Service) ResolveQuestion(ctx context.Context, question string) ([]apptype.EntityResolution, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("no entity extractor configured (set EXTRACTOR_PROVIDER)")
	}
	entities, err := s.extractor.Extract(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	resolutions := make([]apptype.EntityResolution, 0, len(entities))
	for _, entity := range entities {
		resolutions = append(resolutions, s.resolver.Resolve(ctx, entity))
	}
	return resolutions, nil
}

// LookupConcepts exposes the terminology lookup for direct use.
func (s *Service) LookupConcepts(ctx context.Context, term string, maxConcepts int) []apptype.Concept {
	return s.terms.Lookup(ctx, term, maxConcepts)
}

// SimilaritySearch returns the knowledge-base nodes nearest to a
// free-text mention, without attaching concepts or paths. An empty result
// means the fallback is disabled or the embedding failed.
func (s *Service) SimilaritySearch(ctx context.Context, text string, topN int) []apptype.SimilarityCandidate {
	return s.resolver.Candidates(ctx, text, topN)
}

// FindPaths exposes the graph path query for direct use.
func (s *Service) FindPaths(ctx context.Context, ref apptype.NodeRef, k int) ([]apptype.Path, time.Duration, error) {
	return s.graphs.FindPaths(ctx, ref, k)
}

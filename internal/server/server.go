package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/metrics"
	"github.com/medresolve/medkb-go/pkg/resolve"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer exposes entity resolution over the MCP protocol.
type MCPServer struct {
	server  *mcp.Server
	service *resolve.Service
}

// NewMCPServer creates a new MCP server backed by the given resolution service.
func NewMCPServer(service *resolve.Service, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "medkb-resolve",
		Version: version,
	}, nil)

	mcpServer := &MCPServer{
		server:  server,
		service: service,
	}

	// initialize metrics from env (no-op if disabled)
	metrics.InitFromEnv()
	mcpServer.setupToolHandlers()
	return mcpServer
}

// setupToolHandlers registers all MCP tools
func (s *MCPServer) setupToolHandlers() {
	resolveQuestionInputSchema, err := jsonschema.For[apptype.ResolveQuestionArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for ResolveQuestionArgs: %v", err))
	}
	resolveQuestionOutputSchema, err := jsonschema.For[apptype.ResolveQuestionResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for ResolveQuestionResult: %v", err))
	}
	resolveEntityInputSchema, err := jsonschema.For[apptype.ResolveEntityArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for ResolveEntityArgs: %v", err))
	}
	resolveEntityOutputSchema, err := jsonschema.For[apptype.EntityResolution]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for EntityResolution: %v", err))
	}
	lookupConceptInputSchema, err := jsonschema.For[apptype.LookupConceptArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for LookupConceptArgs: %v", err))
	}
	lookupConceptOutputSchema, err := jsonschema.For[apptype.LookupConceptResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for LookupConceptResult: %v", err))
	}
	findPathsInputSchema, err := jsonschema.For[apptype.FindPathsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for FindPathsArgs: %v", err))
	}
	findPathsOutputSchema, err := jsonschema.For[apptype.FindPathsResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for FindPathsResult: %v", err))
	}
	similaritySearchInputSchema, err := jsonschema.For[apptype.SimilaritySearchArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SimilaritySearchArgs: %v", err))
	}
	similaritySearchOutputSchema, err := jsonschema.For[apptype.SimilaritySearchResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SimilaritySearchResult: %v", err))
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "resolve_question",
		Title:        "Resolve Question",
		Description:  "Extract medical entities from a clinical question and resolve each one against the knowledge base.",
		InputSchema:  resolveQuestionInputSchema,
		OutputSchema: resolveQuestionOutputSchema,
	}, s.handleResolveQuestion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "resolve_entity",
		Title:        "Resolve Entity",
		Description:  "Resolve a single medical entity mention via terminology lookup, graph paths, and similarity fallback.",
		InputSchema:  resolveEntityInputSchema,
		OutputSchema: resolveEntityOutputSchema,
	}, s.handleResolveEntity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "lookup_concept",
		Title:        "Lookup Concept",
		Description:  "Look up a term in the medical terminology service and return concepts with definitions.",
		InputSchema:  lookupConceptInputSchema,
		OutputSchema: lookupConceptOutputSchema,
	}, s.handleLookupConcept)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "find_paths",
		Title:        "Find Paths",
		Description:  "Find exact-length relationship paths in the knowledge graph starting from a node given by name or index.",
		InputSchema:  findPathsInputSchema,
		OutputSchema: findPathsOutputSchema,
	}, s.handleFindPaths)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "similarity_search",
		Title:        "Similarity Search",
		Description:  "Embed a free-text mention and return the nearest knowledge-base nodes by cosine similarity.",
		InputSchema:  similaritySearchInputSchema,
		OutputSchema: similaritySearchOutputSchema,
	}, s.handleSimilaritySearch)
}

// handleResolveQuestion handles the resolve_question tool call
func (s *MCPServer) handleResolveQuestion(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.ResolveQuestionArgs],
) (*mcp.CallToolResultFor[apptype.ResolveQuestionResult], error) {
	done := metrics.TimeOp("resolve_question")
	var success bool
	defer func() { done(success) }()

	question := params.Arguments.Question
	if question == "" {
		return nil, errors.New("question is required")
	}
	resolutions, err := s.service.ResolveQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("resolve question failed: %w", err)
	}
	success = true

	result := &mcp.CallToolResultFor[apptype.ResolveQuestionResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Resolved %d entities", len(resolutions)),
			},
		},
		StructuredContent: apptype.ResolveQuestionResult{
			Question:    question,
			Resolutions: resolutions,
		},
	}
	return result, nil
}

// handleResolveEntity handles the resolve_entity tool call
func (s *MCPServer) handleResolveEntity(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.ResolveEntityArgs],
) (*mcp.CallToolResultFor[apptype.EntityResolution], error) {
	done := metrics.TimeOp("resolve_entity")
	var success bool
	defer func() { done(success) }()

	entity := params.Arguments.Entity
	if entity == "" {
		return nil, errors.New("entity is required")
	}
	resolution := s.service.ResolveEntity(ctx, entity)
	success = true

	text := "Resolved from primary sources"
	if resolution.FallbackUsed {
		text = "Resolved via similarity fallback"
	}
	result := &mcp.CallToolResultFor[apptype.EntityResolution]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: text,
			},
		},
		StructuredContent: resolution,
	}
	return result, nil
}

// handleLookupConcept handles the lookup_concept tool call
func (s *MCPServer) handleLookupConcept(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.LookupConceptArgs],
) (*mcp.CallToolResultFor[apptype.LookupConceptResult], error) {
	done := metrics.TimeOp("lookup_concept")
	var success bool
	defer func() { done(success) }()

	term := params.Arguments.Term
	if term == "" {
		return nil, errors.New("term is required")
	}
	maxConcepts := params.Arguments.MaxConcepts
	if maxConcepts <= 0 {
		maxConcepts = 1
	}
	concepts := s.service.LookupConcepts(ctx, term, maxConcepts)
	success = true

	result := &mcp.CallToolResultFor[apptype.LookupConceptResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d concepts", len(concepts)),
			},
		},
		StructuredContent: apptype.LookupConceptResult{
			Term:     term,
			Concepts: concepts,
		},
	}
	return result, nil
}

// handleFindPaths handles the find_paths tool call
func (s *MCPServer) handleFindPaths(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.FindPathsArgs],
) (*mcp.CallToolResultFor[apptype.FindPathsResult], error) {
	done := metrics.TimeOp("find_paths")
	var success bool
	defer func() { done(success) }()

	var ref apptype.NodeRef
	switch {
	case params.Arguments.Name != "" && params.Arguments.Index != "":
		return nil, errors.New("provide either name or index, not both")
	case params.Arguments.Name != "":
		ref = apptype.ByName(params.Arguments.Name)
	case params.Arguments.Index != "":
		ref = apptype.ByIndex(params.Arguments.Index)
	default:
		return nil, errors.New("either name or index is required")
	}
	hops := params.Arguments.Hops
	if hops <= 0 {
		hops = 1
	}

	paths, elapsed, err := s.service.FindPaths(ctx, ref, hops)
	if err != nil {
		return nil, fmt.Errorf("find paths failed: %w", err)
	}
	success = true

	result := &mcp.CallToolResultFor[apptype.FindPathsResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d paths in %dms", len(paths), elapsed.Milliseconds()),
			},
		},
		StructuredContent: apptype.FindPathsResult{
			Paths:     paths,
			ElapsedMS: elapsed.Milliseconds(),
		},
	}
	return result, nil
}

// handleSimilaritySearch handles the similarity_search tool call
func (s *MCPServer) handleSimilaritySearch(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.SimilaritySearchArgs],
) (*mcp.CallToolResultFor[apptype.SimilaritySearchResult], error) {
	done := metrics.TimeOp("similarity_search")
	var success bool
	defer func() { done(success) }()

	text := params.Arguments.Text
	if text == "" {
		return nil, errors.New("text is required")
	}
	candidates := s.service.SimilaritySearch(ctx, text, params.Arguments.TopN)
	success = true

	result := &mcp.CallToolResultFor[apptype.SimilaritySearchResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d candidates", len(candidates)),
			},
		},
		StructuredContent: apptype.SimilaritySearchResult{
			Candidates: candidates,
		},
	}
	return result, nil
}

// Run starts the MCP server over stdio
func (s *MCPServer) Run(ctx context.Context) error {
	transport := mcp.NewStdioTransport()
	return s.server.Run(ctx, transport)
}

// RunSSE starts the MCP server over SSE at the given address and endpoint
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("SSE MCP server listening on %s%s", addr, endpoint)
	return srv.ListenAndServe()
}

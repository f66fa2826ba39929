package apptype

// ResolveQuestionArgs represents the arguments for the resolve_question tool.
type ResolveQuestionArgs struct {
	Question string `json:"question" jsonschema:"The clinical question whose entities should be extracted and resolved."`
}

// ResolveQuestionResult is the structured output of resolve_question.
type ResolveQuestionResult struct {
	Question    string             `json:"question"`
	Resolutions []EntityResolution `json:"resolutions"`
}

// ResolveEntityArgs represents the arguments for the resolve_entity tool.
type ResolveEntityArgs struct {
	Entity string `json:"entity" jsonschema:"The medical entity mention to resolve against the knowledge base."`
}

// LookupConceptArgs represents the arguments for the lookup_concept tool.
type LookupConceptArgs struct {
	Term        string `json:"term" jsonschema:"The term to look up in the medical terminology service."`
	MaxConcepts int    `json:"maxConcepts,omitempty" jsonschema:"Maximum number of concepts to return (default 1)."`
}

// LookupConceptResult is the structured output of lookup_concept.
type LookupConceptResult struct {
	Term     string    `json:"term"`
	Concepts []Concept `json:"concepts"`
}

// FindPathsArgs represents the arguments for the find_paths tool. Exactly
// one of name and index must be provided.
type FindPathsArgs struct {
	Name  string `json:"name,omitempty" jsonschema:"Start node name."`
	Index string `json:"index,omitempty" jsonschema:"Start node index, as a string."`
	Hops  int    `json:"hops,omitempty" jsonschema:"Exact path length in edges (default 1)."`
}

// FindPathsResult is the structured output of find_paths.
type FindPathsResult struct {
	Paths     []Path `json:"paths"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// SimilaritySearchArgs represents the arguments for the similarity_search tool.
type SimilaritySearchArgs struct {
	Text string `json:"text" jsonschema:"The free-text mention to embed and search for."`
	TopN int    `json:"topN,omitempty" jsonschema:"Number of nearest nodes to return (default 5)."`
}

// SimilaritySearchResult is the structured output of similarity_search.
type SimilaritySearchResult struct {
	Candidates []SimilarityCandidate `json:"candidates"`
}

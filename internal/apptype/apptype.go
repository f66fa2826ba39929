package apptype

// Definition is one textual definition of a concept, attributed to the
// vocabulary it came from.
type Definition struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Concept represents a normalized medical vocabulary entry.
type Concept struct {
	CUI         string       `json:"cui"`
	Name        string       `json:"name"`
	Source      string       `json:"source"`
	URI         string       `json:"uri,omitempty"`
	Definitions []Definition `json:"definitions"`
}

// Path is a rendered knowledge-graph path: node names alternating with
// relationship labels. A path of k hops has 2k+1 tokens.
type Path []string

// NodeRef identifies a graph node either by its name property or by its
// index property. Exactly one field is set.
type NodeRef struct {
	Name  string `json:"name,omitempty"`
	Index string `json:"index,omitempty"`
}

// ByName builds a NodeRef addressing a node by name.
func ByName(name string) NodeRef { return NodeRef{Name: name} }

// ByIndex builds a NodeRef addressing a node by its index property.
func ByIndex(index string) NodeRef { return NodeRef{Index: index} }

// SimilarityCandidate is a node surfaced by vector similarity search when
// the primary lookups come up empty. Rank is the 1-based position among
// the top-N neighbors, ordered by descending similarity.
type SimilarityCandidate struct {
	NodeIndex  string    `json:"nodeIndex"`
	NodeName   string    `json:"nodeName"`
	Similarity float64   `json:"similarity"`
	Rank       int       `json:"rank"`
	Concepts   []Concept `json:"concepts,omitempty"`
	Paths      []Path    `json:"paths,omitempty"`
}

// EntityResolution is the per-entity output record handed to the
// presentation layer.
type EntityResolution struct {
	Entity       string                `json:"entity"`
	Concepts     []Concept             `json:"concepts"`
	Paths        []Path                `json:"paths"`
	FallbackUsed bool                  `json:"fallbackUsed"`
	Candidates   []SimilarityCandidate `json:"fallbackCandidates,omitempty"`
}

// QuestionRecord is the minimal shape of one input record.
type QuestionRecord struct {
	Question string `json:"question"`
}

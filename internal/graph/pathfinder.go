package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/metrics"
)

// UnknownToken substitutes for node names and relationship labels the
// graph does not carry.
const UnknownToken = "Unknown"

// ErrEmptyNodeRef indicates a NodeRef with neither name nor index set.
var ErrEmptyNodeRef = errors.New("node reference must carry a name or an index")

// PathFinder answers exact-length path queries against the knowledge graph.
type PathFinder struct {
	client Client
}

// NewPathFinder wraps a graph client.
func NewPathFinder(client Client) *PathFinder {
	return &PathFinder{client: client}
}

// FindPaths returns all undirected paths of exactly k edges starting from
// the referenced node, each rendered as alternating name and relationship
// tokens, plus the query latency. An empty result is a valid outcome; a
// service-level error propagates to the caller.
func (f *PathFinder) FindPaths(ctx context.Context, ref apptype.NodeRef, k int) ([]apptype.Path, time.Duration, error) {
	done := metrics.TimeOp("graph_paths")
	success := false
	defer func() { done(success) }()

	if k < 1 {
		return nil, 0, fmt.Errorf("hop count must be >= 1, got %d", k)
	}

	var filter string
	params := map[string]any{}
	switch {
	case ref.Name != "":
		filter = "start.name = $name"
		params["name"] = ref.Name
	case ref.Index != "":
		filter = "start.index = $index"
		params["index"] = ref.Index
	default:
		return nil, 0, ErrEmptyNodeRef
	}

	// The variable-length bound cannot be parameterized, so k is baked into
	// the pattern. Token defaults are applied graph-side via coalesce and
	// re-checked when the record is decoded.
	cypher := fmt.Sprintf(`MATCH p = (start)-[*%d..%d]-(finish)
WHERE %s
RETURN [n IN nodes(p) | coalesce(n.name, '%s')] AS names,
       [r IN relationships(p) | coalesce(type(r), '%s')] AS rels`,
		k, k, filter, UnknownToken, UnknownToken)

	start := time.Now()
	res, err := f.client.ExecuteRead(ctx, cypher, params)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("query %d-hop paths: %w", k, err)
	}

	paths := make([]apptype.Path, 0, len(res.Records))
	for _, rec := range res.Records {
		names := stringList(rec["names"])
		rels := stringList(rec["rels"])
		if len(names) != len(rels)+1 {
			continue
		}
		path := make(apptype.Path, 0, len(names)+len(rels))
		for i, name := range names {
			path = append(path, name)
			if i < len(rels) {
				path = append(path, rels[i])
			}
		}
		paths = append(paths, path)
	}

	success = true
	return paths, elapsed, nil
}

// NamesFor resolves node indexes to display names in one round trip.
// Indexes absent from the graph, or whose node has no name property, are
// missing from the returned map.
func (f *PathFinder) NamesFor(ctx context.Context, ids []string) (map[string]string, error) {
	done := metrics.TimeOp("names_for")
	success := false
	defer func() { done(success) }()

	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	res, err := f.client.ExecuteRead(ctx,
		`MATCH (n) WHERE n.index IN $ids RETURN n.index AS idx, n.name AS name`,
		map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("resolve node names: %w", err)
	}

	names := make(map[string]string, len(res.Records))
	for _, rec := range res.Records {
		idx, ok := rec["idx"].(string)
		if !ok {
			continue
		}
		if name, ok := rec["name"].(string); ok && name != "" {
			names[idx] = name
		}
	}

	success = true
	return names, nil
}

// stringList coerces a driver list value into tokens, defaulting anything
// that is not a non-empty string.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || s == "" {
			s = UnknownToken
		}
		out[i] = s
	}
	return out
}

// Package vectorindex implements a flat cosine-similarity index over
// unit-normalized vectors, backed by a pair of parallel arrays: row i of
// the vector matrix corresponds to entry i of the node identifier array.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Index is an immutable in-memory nearest-neighbor index. Stored vectors
// are unit-normalized at construction, so cosine similarity reduces to a
// plain inner product.
type Index struct {
	vectors [][]float32
	ids     []string
	dims    int
}

// New builds an index from a vector matrix and its parallel node id
// array. The two must have equal length; every row must share one
// dimensionality.
func New(vectors [][]float32, ids []string) (*Index, error) {
	if len(vectors) != len(ids) {
		return nil, fmt.Errorf("vector rows (%d) and node ids (%d) must be parallel arrays of equal length",
			len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return &Index{}, nil
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("vectors must have at least one dimension")
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("row %d has %d dimensions, expected %d", i, len(v), dims)
		}
		normalized[i] = Normalize(v)
	}

	stored := make([]string, len(ids))
	copy(stored, ids)
	return &Index{vectors: normalized, ids: stored, dims: dims}, nil
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int { return len(ix.vectors) }

// Dims returns the index dimensionality, 0 for an empty index.
func (ix *Index) Dims() int { return ix.dims }

// IDAt maps a stored position back to its external node identifier.
func (ix *Index) IDAt(pos int) string {
	if pos < 0 || pos >= len(ix.ids) {
		return ""
	}
	return ix.ids[pos]
}

// Nearest returns the n stored vectors closest to query by inner product,
// in descending order, with their similarity scores and positions. The
// caller supplies a unit-normalized query for cosine semantics. Ties keep
// stored order. n larger than the index is clamped; n <= 0 yields empty
// results.
func (ix *Index) Nearest(query []float32, n int) (scores []float64, positions []int) {
	if n <= 0 || len(ix.vectors) == 0 || len(query) != ix.dims {
		return nil, nil
	}

	all := make([]int, len(ix.vectors))
	dots := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		all[i] = i
		dots[i] = dot(query, v)
	}
	sort.SliceStable(all, func(a, b int) bool { return dots[all[a]] > dots[all[b]] })

	if n > len(all) {
		n = len(all)
	}
	scores = make([]float64, n)
	positions = make([]int, n)
	for i := 0; i < n; i++ {
		positions[i] = all[i]
		scores[i] = dots[all[i]]
	}
	return scores, positions
}

// Normalize returns v scaled to unit L2 length. A zero vector is
// returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// NormalizeID coerces an external node identifier to its string form.
// Identifiers that originate from numeric arrays must be stringified
// before any graph lookup.
func NormalizeID(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		// JSON numbers decode as float64; integral values keep integer form.
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return "", fmt.Errorf("unsupported node id type %T", v)
	}
}

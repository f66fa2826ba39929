package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPathsRendersAlternatingTokens(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{
			"names": []any{"Aspirin", "Headache"},
			"rels":  []any{"MAY_TREAT"},
		},
	}})
	f := NewPathFinder(client)

	paths, elapsed, err := f.FindPaths(context.Background(), apptype.ByName("Aspirin"), 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, apptype.Path{"Aspirin", "MAY_TREAT", "Headache"}, paths[0])
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "[*1..1]")
	assert.Contains(t, calls[0].Query, "start.name = $name")
	assert.Equal(t, "Aspirin", calls[0].Params["name"])
}

func TestFindPathsByIndex(t *testing.T) {
	client := NewMemoryClient()
	f := NewPathFinder(client)

	_, _, err := f.FindPaths(context.Background(), apptype.ByIndex("42"), 2)
	require.NoError(t, err)

	calls := client.ReadCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "[*2..2]")
	assert.Contains(t, calls[0].Query, "start.index = $index")
	assert.Equal(t, "42", calls[0].Params["index"])
}

func TestFindPathsDefaultsMissingTokens(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{
			// The driver can return nulls for anonymous nodes or typeless
			// relationships despite the coalesce in the query.
			"names": []any{"Start", nil, ""},
			"rels":  []any{nil, "RELATES_TO"},
		},
	}})
	f := NewPathFinder(client)

	paths, _, err := f.FindPaths(context.Background(), apptype.ByName("Start"), 2)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, apptype.Path{"Start", UnknownToken, UnknownToken, "RELATES_TO", UnknownToken}, paths[0])
}

func TestFindPathsSkipsMalformedRecords(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{"names": []any{"A"}, "rels": []any{"R"}},              // wrong arity
		{"names": "bogus", "rels": []any{}},                    // wrong type
		{"names": []any{"A", "B"}, "rels": []any{"CONNECTED"}}, // valid
	}})
	f := NewPathFinder(client)

	paths, _, err := f.FindPaths(context.Background(), apptype.ByName("A"), 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, apptype.Path{"A", "CONNECTED", "B"}, paths[0])
}

func TestFindPathsPropagatesServiceError(t *testing.T) {
	client := NewMemoryClient().WithError(errors.New("connection reset"))
	f := NewPathFinder(client)

	_, _, err := f.FindPaths(context.Background(), apptype.ByName("A"), 1)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection reset"))
}

func TestFindPathsRejectsEmptyRefAndBadHops(t *testing.T) {
	f := NewPathFinder(NewMemoryClient())

	_, _, err := f.FindPaths(context.Background(), apptype.NodeRef{}, 1)
	assert.ErrorIs(t, err, ErrEmptyNodeRef)

	_, _, err = f.FindPaths(context.Background(), apptype.ByName("A"), 0)
	require.Error(t, err)
}

func TestNamesFor(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{
		{"idx": "1", "name": "Pregnancy"},
		{"idx": "2", "name": ""},  // unnamed node omitted
		{"idx": 3, "name": "Bad"}, // non-string index omitted
	}})
	f := NewPathFinder(client)

	names, err := f.NamesFor(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Pregnancy"}, names)
}

func TestNamesForEmptyInput(t *testing.T) {
	client := NewMemoryClient()
	f := NewPathFinder(client)

	names, err := f.NamesFor(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, client.ReadCalls(), "no query for an empty id list")
}

func TestNamesForPropagatesError(t *testing.T) {
	client := NewMemoryClient().WithError(errors.New("session expired"))
	f := NewPathFinder(client)

	_, err := f.NamesFor(context.Background(), []string{"1"})
	require.Error(t, err)
}

package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReportsAbsenceExplicitly(t *testing.T) {
	out := Render("What treats anemia?", []apptype.EntityResolution{
		{
			Entity:       "anemia",
			FallbackUsed: true,
		},
	})

	assert.Contains(t, out, "What treats anemia?")
	assert.Contains(t, out, "no concepts found")
	assert.Contains(t, out, "no paths found")
	assert.Contains(t, out, "no fallback candidates")
}

func TestRenderPrimaryResolution(t *testing.T) {
	out := Render("q", []apptype.EntityResolution{
		{
			Entity: "aspirin",
			Concepts: []apptype.Concept{{
				CUI:    "C0004057",
				Name:   "Aspirin",
				Source: "MTH",
				Definitions: []apptype.Definition{
					{Source: "MSH", Text: "An anti-inflammatory agent."},
				},
			}},
			Paths: []apptype.Path{{"Aspirin", "MAY_TREAT", "Headache"}},
		},
	})

	assert.Contains(t, out, "Aspirin")
	assert.Contains(t, out, "C0004057")
	assert.Contains(t, out, "Aspirin -> MAY_TREAT -> Headache")
	assert.NotContains(t, out, "fallback")
}

func TestRenderCandidates(t *testing.T) {
	out := Render("q", []apptype.EntityResolution{
		{
			Entity:       "pregnant women",
			FallbackUsed: true,
			Candidates: []apptype.SimilarityCandidate{{
				NodeIndex:  "42",
				NodeName:   "Pregnancy",
				Similarity: 0.8812,
				Rank:       1,
				Paths:      []apptype.Path{{"Pregnancy", "CO_OCCURS", "Nausea"}},
			}},
		},
	})

	assert.Contains(t, out, "similarity search engaged")
	assert.Contains(t, out, "Pregnancy")
	assert.Contains(t, out, "rank 1")
	assert.Contains(t, out, "0.8812")
}

func TestRenderTruncatesLongPathLists(t *testing.T) {
	paths := make([]apptype.Path, 15)
	for i := range paths {
		paths[i] = apptype.Path{"A", "REL", "B"}
	}
	out := Render("q", []apptype.EntityResolution{
		{Entity: "a", Concepts: []apptype.Concept{{CUI: "C1", Name: "A"}}, Paths: paths},
	})

	assert.Equal(t, maxPathsView, strings.Count(out, "A -> REL -> B"))
	assert.Contains(t, out, "(5 more paths)")
}

func TestRenderJSON(t *testing.T) {
	s, err := RenderJSON("q", nil)
	require.NoError(t, err)

	var report QuestionReport
	require.NoError(t, json.Unmarshal([]byte(s), &report))
	assert.Equal(t, "q", report.Question)
	assert.NotNil(t, report.Resolutions)
	assert.Empty(t, report.Resolutions)
}

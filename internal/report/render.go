// Package report renders entity resolutions for the console.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/medresolve/medkb-go/internal/apptype"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	entityStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb454"))
	absentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")).Italic(true)
	maxPathsView = 10
)

// Render formats the resolutions of one question for the console. Absence
// of data is reported explicitly, never silently omitted.
func Render(question string, resolutions []apptype.EntityResolution) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Question: "+question) + "\n")
	if len(resolutions) == 0 {
		b.WriteString(absentStyle.Render("  no entities extracted") + "\n")
		return b.String()
	}
	for _, res := range resolutions {
		writeResolution(&b, res)
	}
	return b.String()
}

func writeResolution(b *strings.Builder, res apptype.EntityResolution) {
	b.WriteString(entityStyle.Render("Entity: "+res.Entity) + "\n")

	writeConcepts(b, "  ", res.Concepts)
	writePaths(b, "  ", res.Paths)

	if !res.FallbackUsed {
		return
	}
	b.WriteString(warnStyle.Render("  fallback: similarity search engaged") + "\n")
	if len(res.Candidates) == 0 {
		b.WriteString(absentStyle.Render("  no fallback candidates (embedding unavailable)") + "\n")
		return
	}
	for _, cand := range res.Candidates {
		b.WriteString(fmt.Sprintf("  %s %s (node %s, similarity %.4f, rank %d)\n",
			labelStyle.Render("candidate:"), cand.NodeName, cand.NodeIndex, cand.Similarity, cand.Rank))
		writeConcepts(b, "    ", cand.Concepts)
		writePaths(b, "    ", cand.Paths)
	}
}

func writeConcepts(b *strings.Builder, indent string, concepts []apptype.Concept) {
	if len(concepts) == 0 {
		b.WriteString(indent + absentStyle.Render("no concepts found") + "\n")
		return
	}
	for _, c := range concepts {
		b.WriteString(fmt.Sprintf("%s%s %s [%s, %s]\n",
			indent, labelStyle.Render("concept:"), c.Name, c.CUI, c.Source))
		for _, d := range c.Definitions {
			b.WriteString(fmt.Sprintf("%s  %s %s\n", indent, labelStyle.Render(d.Source+":"), d.Text))
		}
	}
}

func writePaths(b *strings.Builder, indent string, paths []apptype.Path) {
	if len(paths) == 0 {
		b.WriteString(indent + absentStyle.Render("no paths found") + "\n")
		return
	}
	shown := paths
	if len(shown) > maxPathsView {
		shown = shown[:maxPathsView]
	}
	for _, p := range shown {
		b.WriteString(fmt.Sprintf("%s%s %s\n", indent, labelStyle.Render("path:"), strings.Join(p, " -> ")))
	}
	if len(paths) > maxPathsView {
		b.WriteString(fmt.Sprintf("%s%s\n", indent,
			absentStyle.Render(fmt.Sprintf("(%d more paths)", len(paths)-maxPathsView))))
	}
}

// QuestionReport pairs a question with its resolutions for JSON output.
type QuestionReport struct {
	Question    string                     `json:"question"`
	Resolutions []apptype.EntityResolution `json:"resolutions"`
}

// RenderJSON emits one report as indented JSON.
func RenderJSON(question string, resolutions []apptype.EntityResolution) (string, error) {
	if resolutions == nil {
		resolutions = []apptype.EntityResolution{}
	}
	data, err := json.MarshalIndent(QuestionReport{Question: question, Resolutions: resolutions}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(data), nil
}

// Package sourcetext pulls cheap heuristics out of plain diagram source text:
// the diagram kind from the first significant line and expected edge-label
// counts. The text is never parsed properly; these hints only tune metric
// candidate filters.
package sourcetext

import (
	"regexp"
	"strings"

	"github.com/layoutqa/layoutqa/scene"
)

var (
	pipeEdgeLabelRE   = regexp.MustCompile(`\|[^|\n]+\|`)
	quotedEdgeLabelRE = regexp.MustCompile(`--\s*"[^"]+"`)
	sequenceMessageRE = regexp.MustCompile(`-{1,2}[x+o]?>{1,2}.*:\s*\S`)
	commentLinePrefix = "%%"
)

// DetectKind sniffs the diagram kind from the first significant line.
func DetectKind(src string) scene.Kind {
	for _, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentLinePrefix) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "sequenceDiagram"):
			return scene.KindSequence
		case strings.HasPrefix(line, "flowchart"), strings.HasPrefix(line, "graph"):
			return scene.KindFlowchart
		case strings.HasPrefix(line, "classDiagram"):
			return scene.KindClass
		case strings.HasPrefix(line, "stateDiagram"):
			return scene.KindState
		case strings.HasPrefix(line, "erDiagram"):
			return scene.KindER
		case strings.HasPrefix(line, "treemap"):
			return scene.KindTreemap
		}
		break
	}
	return scene.KindUnknown
}

// ExpectedMessageLabels counts lines that textually look like sequence
// messages with a label. It bounds the edge-label candidate set for sequence
// scenes, where actor and title text shares the message text style.
func ExpectedMessageLabels(src string) int {
	count := 0
	for _, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentLinePrefix) {
			continue
		}
		if sequenceMessageRE.MatchString(line) {
			count++
		}
	}
	return count
}

// HasEdgeLabels reports whether the source declares any edge label at all.
// When it does not, label metrics skip the fallback candidate scan entirely.
func HasEdgeLabels(src string, kind scene.Kind) bool {
	if kind == scene.KindSequence {
		return ExpectedMessageLabels(src) > 0
	}
	return pipeEdgeLabelRE.MatchString(src) || quotedEdgeLabelRE.MatchString(src)
}

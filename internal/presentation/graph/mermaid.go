package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/history/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a history snapshot.
// Entries are chained left to right and shaped by the action that created them:
// - Pop (initial or restored): ((Circle))
// - Replace: [/Parallelogram/]
// - Push and anything else: [Rectangle]
// The current entry is highlighted and entries after it are styled as forward history.
func GenerateMermaid(snap *domain.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if snap == nil {
		return sb.String()
	}

	for i, entry := range snap.Entries {
		opener, closer := "[", "]"
		switch entry.Action {
		case domain.Pop:
			opener, closer = "((", "))"
		case domain.Replace:
			opener, closer = "[/", "/]"
		}

		// Escape double quotes in the path for the Mermaid label
		label := strings.ReplaceAll(entry.Path(), "\"", "'")
		if entry.Key != "" {
			label = fmt.Sprintf("%s <br/> %s", label, entry.Key)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", nodeID(i), opener, label, closer))

		if i > 0 {
			arrow := "-->"
			if i > snap.Current {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeID(i-1), arrow, nodeID(i)))
		}
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef forward fill:#eceff1,stroke:#90a4ae,stroke-dasharray:4,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for i := snap.Current + 1; i < len(snap.Entries); i++ {
		sb.WriteString(fmt.Sprintf("    class %s forward;\n", nodeID(i)))
	}
	if snap.Current >= 0 && snap.Current < len(snap.Entries) {
		sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(snap.Current)))
	}

	return sb.String()
}

func nodeID(i int) string {
	return fmt.Sprintf("e%d", i)
}

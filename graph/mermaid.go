package graph

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a Mermaid flowchart. Conditional routes are
// drawn as dotted arrows to each declared target.
func (g *StateGraph[S]) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	sb.WriteString("    START([\"START\"])\n")

	for _, name := range g.order {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}
	if g.referencesEnd() {
		sb.WriteString("    END([\"END\"])\n")
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
	}
	for _, from := range g.conditionalOrder {
		for _, to := range g.conditionalEdges[from].targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
		}
	}
	return sb.String()
}

func (g *StateGraph[S]) referencesEnd() bool {
	for _, e := range g.edges {
		if e.To == END {
			return true
		}
	}
	for _, ce := range g.conditionalEdges {
		for _, to := range ce.targets {
			if to == END {
				return true
			}
		}
	}
	return false
}

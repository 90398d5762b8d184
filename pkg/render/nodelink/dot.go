package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
)

// BridgeColor is the DOT colour of bridged links.
const BridgeColor = "#cccccc"

// Options configures node-link diagram rendering.
type Options struct {
	// Layout is the Graphviz engine named in the DOT header. Empty means neato,
	// which honours the edge lengths of the display graph.
	Layout string

	// ShowLabels controls whether link labels are drawn.
	ShowLabels bool
}

// DefaultOptions returns the options used by the renderers in this package.
func DefaultOptions() Options {
	return Options{Layout: "neato", ShowLabels: true}
}

// ToDOT converts a display graph to undirected Graphviz DOT.
//
// Nodes are declared once per id, in first-seen order; later duplicates are
// dropped the same way a renderer reconciling nodes by id would. Neighbour
// nodes are faded and bridged links are drawn grey and dashed.
func ToDOT(g meshgraph.Graph, opts Options) string {
	if opts.Layout == "" {
		opts.Layout = "neato"
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", opts.Layout)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %s -- %s [%s];\n", quote(e.From), quote(e.To), strings.Join(edgeAttrs(e, opts.ShowLabels), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n meshgraph.Node) []string {
	attrs := []string{"label=" + quote(n.Label)}
	if n.IsNeighbor() {
		attrs = append(attrs, "shape=ellipse", "fillcolor=\"#ffffff4d\"", "color=\"#0000004d\"", "fontcolor=\"#0000004d\"")
	}
	return attrs
}

func edgeAttrs(e meshgraph.Edge, showLabels bool) []string {
	// neato reads len in inches; the display lengths are pixels at 100dpi.
	attrs := []string{fmt.Sprintf("len=%.2f", float64(e.Length)/100)}
	if showLabels && e.Label != "" {
		attrs = append(attrs, "label="+quote(e.Label))
	}
	if e.Color != "" {
		attrs = append(attrs, "color="+quote(BridgeColor), "style=dashed")
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote returns s as a DOT double-quoted string. Only the quote and the
// backslash are escaped; everything else is passed through as UTF-8.
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

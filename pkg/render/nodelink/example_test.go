package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := meshgraph.Graph{
		Nodes: []meshgraph.Node{
			{ID: "AA", Label: "Gateway"},
			{ID: "BB", Label: "BB"},
		},
		Edges: []meshgraph.Edge{
			{From: "AA", To: "BB", Length: meshgraph.EdgeLengthMain, Label: "1GBit/s"},
		},
	}

	fmt.Print(nodelink.ToDOT(g, nodelink.DefaultOptions()))
	// Output:
	// graph G {
	//   layout=neato;
	//   bgcolor="transparent";
	//   overlap=false;
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, margin="0.2,0.1"];
	//   edge [fontsize=11];
	//
	//   "AA" [label="Gateway"];
	//   "BB" [label="BB"];
	//
	//   "AA" -- "BB" [len=2.00, label="1GBit/s"];
	// }
}

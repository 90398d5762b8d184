package meshgraph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/topology"
)

func ExampleTransform() {
	snap, err := topology.ReadJSON(strings.NewReader(`{
		"devices": [
			{
				"al_address": "AA",
				"interfaces": [
					{"address": "A1", "links": {"B1": {"is_bridge": false, "speed": 1000, "rssi": 255}}}
				]
			},
			{
				"al_address": "BB",
				"interfaces": [{"address": "B1"}],
				"neighbors": {"others": {"eth0": ["CC"]}}
			}
		]
	}`))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	g := meshgraph.Transform(snap)
	for _, n := range g.Nodes {
		fmt.Println("node", n.ID)
	}
	for _, e := range g.Edges {
		fmt.Printf("edge %s-%s %d %q\n", e.From, e.To, e.Length, e.Label)
	}
	// Output:
	// node AA
	// node BB
	// node CC
	// edge BB-CC 50 ""
	// edge AA-BB 200 "1GBit/s"
}

func ExampleEdgeLabel() {
	fmt.Println(meshgraph.EdgeLabel(topology.LinkMetric{Speed: 1000, RSSI: 40}))
	fmt.Println(meshgraph.EdgeLabel(topology.LinkMetric{Speed: 2500, RSSI: topology.RSSIUnknown}))
	fmt.Println(meshgraph.EdgeLabel(topology.LinkMetric{Speed: 100, RSSI: topology.RSSIUnknown}))
	// Output:
	// 40db
	// 2.5GBit/s
	// 100MBit/s
}

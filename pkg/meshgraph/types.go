package meshgraph

// =============================================================================
// Display Constants
// =============================================================================

// Edge lengths, in renderer units.
const (
	EdgeLengthMain = 200 // device-to-device links
	EdgeLengthSub  = 50  // device-to-neighbour links
)

// BridgeColor is the muted colour applied to edges of bridged links.
const BridgeColor = "#ccc"

// ShapeImage is the node shape used for every node.
const ShapeImage = "image"

// GroupComputer is the renderer group of discovered non-mesh neighbours.
const GroupComputer = "computer"

// Node opacities.
const (
	DeviceOpacity   = 1.0
	NeighborOpacity = 0.3
)

// Default node images, relative to the page serving the graph.
const (
	DefaultDeviceImage   = "img/device.svg"
	DefaultNeighborImage = "img/computer.svg"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is the display graph handed to a renderer.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one display node.
type Node struct {
	ID      string  `json:"id" bson:"id"`
	Label   string  `json:"label" bson:"label"`
	Image   string  `json:"image" bson:"image"`
	Shape   string  `json:"shape" bson:"shape"`
	Group   string  `json:"group,omitempty" bson:"group,omitempty"`
	Opacity float64 `json:"opacity" bson:"opacity"`
}

// IsNeighbor reports whether n is a discovered non-mesh neighbour.
func (n *Node) IsNeighbor() bool { return n.Group == GroupComputer }

// Edge is one undirected display edge.
type Edge struct {
	From   string `json:"from" bson:"from"`
	To     string `json:"to" bson:"to"`
	Length int    `json:"length" bson:"length"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Color  string `json:"color,omitempty" bson:"color,omitempty"`
}

// IsMain reports whether e joins two mesh devices.
func (e *Edge) IsMain() bool { return e.Length == EdgeLengthMain }

// NodeIDs returns node ids in output order, duplicates included.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// UniqueNodeCount returns the number of distinct node ids, which is what a
// renderer that reconciles nodes by id ends up drawing.
func (g Graph) UniqueNodeCount() int {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		seen[n.ID] = struct{}{}
	}
	return len(seen)
}

// Empty reports whether g has neither nodes nor edges.
func (g Graph) Empty() bool { return len(g.Nodes) == 0 && len(g.Edges) == 0 }

package meshgraph

import "github.com/matzehuels/meshtower/pkg/topology"

// Options configures node images. Empty fields take the defaults.
type Options struct {
	DeviceImage   string
	NeighborImage string
}

func (o Options) withDefaults() Options {
	if o.DeviceImage == "" {
		o.DeviceImage = DefaultDeviceImage
	}
	if o.NeighborImage == "" {
		o.NeighborImage = DefaultNeighborImage
	}
	return o
}

// Stats summarizes one build.
type Stats struct {
	Devices         int `json:"devices"`
	Interfaces      int `json:"interfaces"`
	Observations    int `json:"observations"`
	AggregatedLinks int `json:"aggregated_links"`
	EmittedLinks    int `json:"emitted_links"`
	DroppedLinks    int `json:"dropped_links"`
	NeighborNodes   int `json:"neighbor_nodes"`
	OwnerCollisions int `json:"owner_collisions"`
}

// Result is the output of [Build]: the graph plus the containers it was
// built from, for inspection.
type Result struct {
	Graph  Graph
	Links  *Aggregator
	Owners *OwnerIndex
	Stats  Stats
}

// Transform is Build with default options, returning only the graph.
func Transform(s *topology.Snapshot) Graph {
	return Build(s, Options{}).Graph
}

// Build converts a topology snapshot into a display graph. A nil snapshot is
// treated as one with no devices. s is not modified.
func Build(s *topology.Snapshot, opts Options) *Result {
	opts = opts.withDefaults()
	res := &Result{
		Graph:  Graph{Nodes: []Node{}, Edges: []Edge{}},
		Links:  NewAggregator(),
		Owners: NewOwnerIndex(),
	}
	if s == nil {
		return res
	}

	for i := range s.Devices {
		walkDevice(res, &s.Devices[i], opts)
	}
	emitLinks(res)

	res.Stats.Devices = len(s.Devices)
	res.Stats.Observations = res.Links.Observations()
	res.Stats.AggregatedLinks = res.Links.Len()
	res.Stats.OwnerCollisions = len(res.Owners.collisions)
	return res
}

func walkDevice(res *Result, d *topology.Device, opts Options) {
	res.Graph.Nodes = append(res.Graph.Nodes, Node{
		ID:      d.ALAddress,
		Label:   d.DisplayName(),
		Image:   opts.DeviceImage,
		Shape:   ShapeImage,
		Opacity: DeviceOpacity,
	})

	for _, iface := range d.Interfaces {
		res.Stats.Interfaces++
		res.Owners.Assign(iface.Address, d.ALAddress)
		for _, l := range iface.Links {
			res.Links.Observe(iface.Address, l.Remote, l.Metric)
		}
	}

	for _, group := range d.Neighbors.Others {
		for _, addr := range group.Addresses {
			res.Stats.NeighborNodes++
			res.Graph.Nodes = append(res.Graph.Nodes, Node{
				ID:      addr,
				Label:   addr,
				Image:   opts.NeighborImage,
				Shape:   ShapeImage,
				Group:   GroupComputer,
				Opacity: NeighborOpacity,
			})
			res.Graph.Edges = append(res.Graph.Edges, Edge{
				From:   d.ALAddress,
				To:     addr,
				Length: EdgeLengthSub,
			})
		}
	}
}

func emitLinks(res *Result) {
	for k, link := range res.Links.All() {
		from, to, ok := res.Owners.Resolve(k)
		if !ok {
			res.Stats.DroppedLinks++
			continue
		}
		e := Edge{
			From:   from,
			To:     to,
			Length: EdgeLengthMain,
			Label:  EdgeLabel(link.Metric()),
		}
		if link.Bridge {
			e.Color = BridgeColor
		}
		res.Graph.Edges = append(res.Graph.Edges, e)
		res.Stats.EmittedLinks++
	}
}

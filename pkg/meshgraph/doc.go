// Package meshgraph turns a mesh topology snapshot into an undirected display
// graph of nodes and edges.
//
// # Overview
//
// A topology snapshot is device-centric: every device lists its interfaces,
// and every interface lists the peer interfaces it sees together with link
// metrics. The same physical link is therefore usually reported twice (once
// from each end), sometimes with different metrics, and sometimes only once.
// [Build] folds those observations into one edge per unordered interface pair
// and resolves each pair back to the devices that own the interfaces.
//
// The transform is pure and synchronous. It never fails: absent optional
// fields are empty, unresolvable links are dropped, and duplicated neighbours
// are emitted as they appear.
//
// # Stages
//
//  1. Every device becomes a node (id = AL address, label = friendly name or
//     AL address).
//  2. Every interface address is assigned to its device in an [OwnerIndex].
//     A later device claiming the same interface wins; the overwrite is
//     counted as a collision.
//  3. Every interface link is observed by an [Aggregator] under its
//     [PairKey]. The first observation of a pair fixes the displayed metric;
//     later ones only bump the use count.
//  4. Every discovered neighbour becomes a faded leaf node and a short edge
//     from its device.
//  5. After the walk, every aggregated pair whose two interfaces both have an
//     owner becomes a long edge between the owning devices, labelled with
//     [EdgeLabel] and greyed out when the link is bridged.
//
// # Output
//
// [Graph] serializes to the shape graph renderers expect:
//
//	{
//	  "nodes": [{"id": "AA", "label": "AA", "image": "...", "shape": "image", "opacity": 1}],
//	  "edges": [{"from": "AA", "to": "BB", "length": 200, "label": "1GBit/s"}]
//	}
//
// Output order is deterministic: device and neighbour entries follow the
// snapshot, and aggregated edges follow the order in which their pairs were
// first observed, grouped by the lower address of each pair.
package meshgraph

// Package pkg provides the core libraries for Meshtower topology visualization.
//
// # Overview
//
// Meshtower fetches the IEEE 1905.1 topology an EasyMesh controller reports
// through ubus (umap get_topology) and draws it: devices as nodes, their
// aggregated interface links as labelled edges, and the non-1905 neighbours
// of each device as faded satellite nodes. The pkg directory is organized
// into four main areas:
//
//  1. Domain: [topology] (the wire snapshot) and [meshgraph] (aggregation,
//     interface ownership and the display graph)
//  2. Output: [render] with its visjs and nodelink renderers
//  3. Infrastructure: [cache], [session], [archive], [observability]
//  4. Orchestration: [integrations]/ubus, [fetch] and [pipeline]
//
// # Architecture
//
// The typical data flow through Meshtower:
//
//	rpcd /ubus (umap get_topology) or a JSON dump
//	         ↓
//	    [fetch] package (ubus session, retry, snapshot cache)
//	         ↓
//	    [meshgraph] package (pair aggregation + owner resolution)
//	         ↓
//	    [render] package (HTML page, SVG/PNG, JSON, DOT)
//
// # Quick Start
//
//	snap, err := topology.ImportJSON("topology.json")
//	if err != nil {
//	    return err
//	}
//	res := meshgraph.Build(snap, meshgraph.Options{})
//	dot := nodelink.ToDOT(res.Graph, nodelink.Options{ShowLabels: true})
//
// For the full pipeline with caching, use [pipeline.Runner].
//
// [topology]: github.com/matzehuels/meshtower/pkg/topology
// [meshgraph]: github.com/matzehuels/meshtower/pkg/meshgraph
// [render]: github.com/matzehuels/meshtower/pkg/render
// [cache]: github.com/matzehuels/meshtower/pkg/cache
// [session]: github.com/matzehuels/meshtower/pkg/session
// [archive]: github.com/matzehuels/meshtower/pkg/archive
// [observability]: github.com/matzehuels/meshtower/pkg/observability
// [integrations]: github.com/matzehuels/meshtower/pkg/integrations
// [fetch]: github.com/matzehuels/meshtower/pkg/fetch
// [pipeline]: github.com/matzehuels/meshtower/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/meshtower/pkg/pipeline#Runner
package pkg

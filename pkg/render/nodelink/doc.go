// Package nodelink renders the mesh display graph as a classic node-link
// diagram using Graphviz.
//
// [ToDOT] produces undirected DOT text (graph G, a -- b). Device-to-device
// links carry their rate label; bridged links are grey and dashed; discovered
// neighbours are faded ellipses. [Renderer] lays the DOT out with the
// embedded Graphviz runtime (neato by default, so edge lengths are honoured)
// and encodes SVG or PNG:
//
//	r := nodelink.NewSVG(nodelink.DefaultOptions())
//	defer r.Close()
//	if err := r.Load(ctx); err != nil { ... }
//	svg, err := r.Render(ctx, g)
//
// [DOTRenderer] returns the DOT text unchanged, for piping into other tools.
package nodelink

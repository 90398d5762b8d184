// Package render turns a mesh display graph into viewable output.
//
// # Overview
//
// Every output format is produced by a [Renderer]. Renderers separate
// one-time library initialisation ([Renderer.Load]) from drawing
// ([Renderer.Render]) so that initialisation can overlap the topology fetch:
//
//	set, err := render.NewSet([]string{"html", "svg"}, render.DefaultOptions())
//	defer set.Close()
//	g, _ := errgroup.WithContext(ctx)
//	g.Go(func() error { return set.Load(ctx) })
//	g.Go(func() error { snap, err = fetcher.Fetch(ctx, false); return err })
//
// # Formats
//
//   - html: interactive vis-network page (in [visjs] subpackage)
//   - svg, png: Graphviz node-link diagram (in [nodelink] subpackage)
//   - dot: the Graphviz source
//   - json: the display graph itself
//
// [visjs]: github.com/matzehuels/meshtower/pkg/render/visjs
// [nodelink]: github.com/matzehuels/meshtower/pkg/render/nodelink
package render

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
)

// Renderer draws the display graph with Graphviz. The Graphviz runtime is
// started by Load and shared across Render calls until Close.
type Renderer struct {
	opts   Options
	format graphviz.Format

	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewSVG returns a Graphviz renderer producing SVG.
func NewSVG(opts Options) *Renderer {
	return &Renderer{opts: opts, format: graphviz.SVG}
}

// NewPNG returns a Graphviz renderer producing PNG.
func NewPNG(opts Options) *Renderer {
	return &Renderer{opts: opts, format: graphviz.PNG}
}

// Format returns "svg" or "png".
func (r *Renderer) Format() string { return string(r.format) }

// Load initialises the Graphviz runtime. Calling it again is a no-op.
func (r *Renderer) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Renderer) load(ctx context.Context) error {
	if r.gv != nil {
		return nil
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	layout := r.opts.Layout
	if layout == "" {
		layout = "neato"
	}
	gv.SetLayout(graphviz.Layout(layout))
	r.gv = gv
	return nil
}

// Render lays out g and returns the encoded image.
func (r *Renderer) Render(ctx context.Context, g meshgraph.Graph) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return nil, err
	}

	parsed, err := graphviz.ParseBytes([]byte(ToDOT(g, r.opts)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := r.gv.Render(ctx, parsed, r.format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", r.format, err)
	}
	if r.format == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// Close releases the Graphviz runtime.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gv == nil {
		return nil
	}
	err := r.gv.Close()
	r.gv = nil
	return err
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg header (pt units, odd origin)
// with a plain viewBox of the same size so the image scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// DOTRenderer emits the DOT source itself.
type DOTRenderer struct {
	opts Options
}

// NewDOT returns a renderer producing DOT text.
func NewDOT(opts Options) *DOTRenderer { return &DOTRenderer{opts: opts} }

func (*DOTRenderer) Format() string             { return "dot" }
func (*DOTRenderer) Load(context.Context) error { return nil }
func (*DOTRenderer) Close() error               { return nil }

func (d *DOTRenderer) Render(_ context.Context, g meshgraph.Graph) ([]byte, error) {
	return []byte(ToDOT(g, d.opts)), nil
}

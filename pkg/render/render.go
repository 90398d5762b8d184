package render

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/render/nodelink"
	"github.com/matzehuels/meshtower/pkg/render/visjs"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Renderer draws a display graph in one output format.
//
// Load performs any one-time library initialisation and may run concurrently
// with the topology fetch. Render must be safe to call after Load; it loads
// lazily when Load was skipped.
type Renderer interface {
	Format() string
	Load(ctx context.Context) error
	Render(ctx context.Context, g meshgraph.Graph) ([]byte, error)
	Close() error
}

// Options configures the renderers built by [New].
type Options struct {
	VisJS    visjs.Options
	NodeLink nodelink.Options
}

// DefaultOptions returns standalone-file friendly defaults.
func DefaultOptions() Options {
	return Options{
		VisJS:    visjs.Options{InlineImages: true},
		NodeLink: nodelink.DefaultOptions(),
	}
}

// Formats lists the supported output formats, default first.
func Formats() []string {
	return []string{FormatHTML, FormatSVG, FormatPNG, FormatJSON, FormatDOT}
}

// IsFormat reports whether f names a supported format.
func IsFormat(f string) bool { return slices.Contains(Formats(), f) }

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch format {
	case FormatHTML:
		return visjs.New(opts.VisJS), nil
	case FormatSVG:
		return nodelink.NewSVG(opts.NodeLink), nil
	case FormatPNG:
		return nodelink.NewPNG(opts.NodeLink), nil
	case FormatJSON:
		return JSON{}, nil
	case FormatDOT:
		return nodelink.NewDOT(opts.NodeLink), nil
	}
	return nil, fmt.Errorf("unknown format: %q", format)
}

// NewSet returns one renderer per format, in order. On error any renderers
// already built are closed.
func NewSet(formats []string, opts Options) (Set, error) {
	set := make(Set, 0, len(formats))
	for _, f := range formats {
		r, err := New(f, opts)
		if err != nil {
			set.Close()
			return nil, err
		}
		set = append(set, r)
	}
	return set, nil
}

// Set is an ordered group of renderers.
type Set []Renderer

// Load loads every renderer, stopping at the first error.
func (s Set) Load(ctx context.Context) error {
	for _, r := range s {
		if err := r.Load(ctx); err != nil {
			return fmt.Errorf("load %s renderer: %w", r.Format(), err)
		}
	}
	return nil
}

// Close closes every renderer and returns the first error.
func (s Set) Close() error {
	var first error
	for _, r := range s {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "application/octet-stream"
}

// JSON renders the display graph as indented JSON.
type JSON struct{}

func (JSON) Format() string             { return FormatJSON }
func (JSON) Load(context.Context) error { return nil }
func (JSON) Close() error               { return nil }

func (JSON) Render(_ context.Context, g meshgraph.Graph) ([]byte, error) {
	if g.Nodes == nil {
		g.Nodes = []meshgraph.Node{}
	}
	if g.Edges == nil {
		g.Edges = []meshgraph.Edge{}
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

package visjs

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"sync"

	"github.com/matzehuels/meshtower/pkg/buildinfo"
	"github.com/matzehuels/meshtower/pkg/meshgraph"
)

// Title is the page title and heading.
const Title = "EasyMesh IEEE.1905 Topology"

// DefaultScriptURL is where the page loads vis-network from when no local
// copy is configured.
const DefaultScriptURL = "https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"

//go:embed assets/page.html.tmpl
var pageSource string

//go:embed assets/img/*.svg
var images embed.FS

var page = template.Must(template.New("page").Parse(pageSource))

// Options configures the page.
type Options struct {
	// ScriptPath is a local vis-network.min.js to inline into the page. When
	// empty the page references ScriptURL instead.
	ScriptPath string

	// ScriptURL overrides DefaultScriptURL.
	ScriptURL string

	// InlineImages replaces the default node image paths with data URIs so
	// the page works as a standalone file.
	InlineImages bool
}

// Renderer produces the HTML page.
type Renderer struct {
	opts Options

	mu     sync.Mutex
	script template.JS
	loaded bool
}

// New returns an HTML renderer.
func New(opts Options) *Renderer {
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}
	return &Renderer{opts: opts}
}

// Format returns "html".
func (*Renderer) Format() string { return "html" }

// Load reads the vis-network script when a local path is configured.
func (r *Renderer) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Renderer) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.opts.ScriptPath != "" {
		data, err := os.ReadFile(r.opts.ScriptPath)
		if err != nil {
			return fmt.Errorf("load vis-network: %w", err)
		}
		r.script = template.JS(data)
	}
	r.loaded = true
	return nil
}

type pageData struct {
	Title     string
	Version   string
	Script    template.JS
	ScriptURL string
	Nodes     []meshgraph.Node
	Edges     []meshgraph.Edge
	Options   map[string]any
}

// Render executes the page template over g.
func (r *Renderer) Render(ctx context.Context, g meshgraph.Graph) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return nil, err
	}

	nodes := g.Nodes
	if r.opts.InlineImages {
		nodes = inlineImages(nodes)
	}
	data := pageData{
		Title:     Title,
		Version:   buildinfo.Version,
		Script:    r.script,
		ScriptURL: r.opts.ScriptURL,
		Nodes:     nonNil(nodes),
		Edges:     nonNil(g.Edges),
		Options:   NetworkOptions(),
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Close is a no-op.
func (*Renderer) Close() error { return nil }

// NetworkOptions returns the vis-network options object.
func NetworkOptions() map[string]any {
	return map[string]any{
		"groups": map[string]any{
			meshgraph.GroupComputer: map[string]any{"opacity": meshgraph.NeighborOpacity},
		},
	}
}

// Images returns the node icons, rooted so that the default image paths of
// the display graph resolve against it.
func Images() fs.FS {
	sub, err := fs.Sub(images, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	dataURIOnce sync.Once
	dataURIs    map[string]string
)

func inlineImages(nodes []meshgraph.Node) []meshgraph.Node {
	dataURIOnce.Do(func() {
		dataURIs = make(map[string]string, 2)
		for _, path := range []string{meshgraph.DefaultDeviceImage, meshgraph.DefaultNeighborImage} {
			raw, err := fs.ReadFile(Images(), path)
			if err != nil {
				continue
			}
			dataURIs[path] = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(raw)
		}
	})

	out := make([]meshgraph.Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		if uri, ok := dataURIs[out[i].Image]; ok {
			out[i].Image = uri
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

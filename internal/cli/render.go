package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/pipeline"
	"github.com/matzehuels/meshtower/pkg/render"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// defaultBase is the output base name when the source is not a file.
const defaultBase = "mesh"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	source      sourceFlags
	formats     string // comma-separated output formats
	output      string // output file, base path, or "-" for stdout
	foldCase    bool   // lower-case addresses before the build
	refresh     bool   // bypass the snapshot cache
	noCache     bool   // disable caching entirely
	archive     bool   // store the rendered snapshot in the archive
	fromArchive string // render an archived snapshot by id
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the mesh topology to HTML, SVG, PNG, JSON or DOT",
		Long: `Fetch the topology from the router (or read a get_topology dump) and
write one file per requested format.

With a single format, -o names the file; "-o -" writes to standard output.
With several formats, -o is a base path and the format is the extension.`,
		Example: `  meshtower render --url http://192.168.1.1/ubus
  meshtower render -i topology.json -f html,svg -o out/mesh
  meshtower render -i - -f dot -o - < topology.json | dot -Tpdf > mesh.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): "+strings.Join(render.Formats(), ", ")+" (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path (- for stdout)")
	cmd.Flags().BoolVar(&opts.foldCase, "fold-case", false, "compare addresses case-insensitively")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cached snapshot")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "store the snapshot in the archive")
	cmd.Flags().StringVar(&opts.fromArchive, "from-archive", "", "render an archived snapshot `id`")
	cmd.MarkFlagsMutuallyExclusive("input", "from-archive")
	cmd.MarkFlagsMutuallyExclusive("url", "from-archive")
	cmd.MarkFlagsMutuallyExclusive("archive", "from-archive")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	cfg := c.config()
	popts := pipeline.Options{
		Formats:  parseFormats(opts.formats, cfg.Render.Formats),
		FoldCase: opts.foldCase || cfg.Render.FoldCase,
		Refresh:  opts.refresh,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if opts.output != "" {
		if err := errs.ValidateOutputPath(opts.output); err != nil {
			return err
		}
		if opts.output == "-" && len(popts.Formats) > 1 {
			return errs.New(errs.ErrCodeInvalidInput, "-o - needs exactly one format, got %d", len(popts.Formats))
		}
	}

	result, source, err := c.produce(ctx, opts, popts)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := stdout.Write(result.Artifacts[popts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, popts.Formats, opts.output, outputBase(opts))
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", source)
	printStats(statsOf(result))
	for _, p := range paths {
		printFile(p)
	}

	if opts.archive {
		return c.archiveSnapshot(ctx, source, result.Snapshot)
	}
	return nil
}

// produce runs the pipeline against the live source or an archived
// snapshot and returns the result with a description of its source.
func (c *CLI) produce(ctx context.Context, opts *renderOpts, popts pipeline.Options) (*pipeline.Result, string, error) {
	if opts.fromArchive != "" {
		snap, err := c.loadArchived(ctx, opts.fromArchive)
		if err != nil {
			return nil, "", err
		}
		runner, err := c.newRunner(ctx, nil, false, opts.noCache)
		if err != nil {
			return nil, "", err
		}
		defer runner.Close()
		result, err := runner.RenderSnapshot(ctx, snap, popts)
		return result, "archive " + opts.fromArchive, err
	}

	fetcher, cacheable, err := c.newFetcher(opts.source)
	if err != nil {
		return nil, "", err
	}
	runner, err := c.newRunner(ctx, fetcher, cacheable, opts.noCache)
	if err != nil {
		return nil, "", err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Fetching topology from "+fetcher.Source()+"...")
	if opts.output != "-" {
		spinner.Start()
	}
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return nil, "", err
	}
	loggerFromContext(ctx).Debug("pipeline finished",
		"fetch", result.Stats.FetchTime, "build", result.Stats.BuildTime, "render", result.Stats.RenderTime)
	return result, fetcher.Source(), nil
}

func (c *CLI) loadArchived(ctx context.Context, id string) (*topology.Snapshot, error) {
	store, err := c.openArchive(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	entry, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return entry.Snapshot()
}

func (c *CLI) archiveSnapshot(ctx context.Context, source string, snap *topology.Snapshot) error {
	store, err := c.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Save(ctx, source, snap)
	if err != nil {
		return err
	}
	printSuccess("Archived snapshot %s", StyleHighlight.Render(entry.ID))
	printNextStep("Re-render later", "meshtower render --from-archive "+entry.ID)
	return nil
}

func statsOf(r *pipeline.Result) topologyStats {
	return topologyStats{
		devices:    r.Stats.Devices,
		nodes:      r.Stats.NodeCount,
		edges:      r.Stats.EdgeCount,
		dropped:    r.Stats.DroppedLinks,
		collisions: r.Stats.OwnerCollisions,
		cached:     r.CacheInfo.FetchHit && r.CacheInfo.RenderHit,
	}
}

// outputBase derives the default base path: the input file name with a
// ".mesh" suffix (so a JSON output never overwrites its input), or "mesh".
func outputBase(opts *renderOpts) string {
	in := opts.source.input
	if in == "" || in == "-" {
		if opts.fromArchive != "" {
			return defaultBase + "-" + shortID(opts.fromArchive)
		}
		return defaultBase
	}
	return strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".mesh"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// basePath strips a known format extension from output. An empty output
// selects fallback.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	ext := filepath.Ext(output)
	if render.IsFormat(strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes one file per format and returns the paths in format
// order. A single format written to an output path with an extension uses
// that path verbatim.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, fallback string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			return paths, errs.New(errs.ErrCodeInternal, "no %s artifact produced", f)
		}

		path := basePath(output, fallback) + "." + f
		if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := writeFile(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshtower/pkg/meshgraph"
	"github.com/matzehuels/meshtower/pkg/pipeline"
	"github.com/matzehuels/meshtower/pkg/topology"
)

type inspectOpts struct {
	source   sourceFlags
	foldCase bool
	refresh  bool
	noCache  bool
	tui      bool
}

func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the devices and aggregated links behind a drawing",
		Long: `Print the device table, the aggregated link table (one row per interface
pair, with the owning devices, label, bridge flag and observation count) and
the build statistics. Links whose interfaces have no owner are drawn by no
renderer and are marked unresolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().BoolVar(&opts.foldCase, "fold-case", false, "compare addresses case-insensitively")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cached snapshot")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "browse interactively")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts *inspectOpts) error {
	fetcher, cacheable, err := c.newFetcher(opts.source)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, fetcher, cacheable, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Fetching topology from "+fetcher.Source()+"...")
	spinner.Start()
	snap, cached, err := runner.FetchWithCacheInfo(ctx, opts.refresh)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return fmt.Errorf("fetch: %w", err)
	}
	spinner.Update("Building graph...")
	res := runner.Build(ctx, snap, pipeline.Options{FoldCase: opts.foldCase || c.config().Render.FoldCase})
	report := newInspectReport(snap, res)
	spinner.Stop()
	if cached {
		c.Logger.Debug("snapshot served from cache", "source", fetcher.Source())
	}
	prog.done(fmt.Sprintf("Inspected %d devices", len(report.devices)))

	if opts.tui {
		_, err := tea.NewProgram(newInspectModel(report), tea.WithContext(ctx), tea.WithAltScreen()).Run()
		return err
	}
	printReport(report)
	return nil
}

// =============================================================================
// Report
// =============================================================================

type deviceRow struct {
	al, name                     string
	interfaces, links, neighbors int
}

type linkRow struct {
	a, b           string // interface addresses
	ownerA, ownerB string // owning devices, empty when unknown
	label          string
	bridge         bool
	use            int
}

func (l linkRow) resolved() bool { return l.ownerA != "" && l.ownerB != "" }

type inspectReport struct {
	devices    []deviceRow
	links      []linkRow
	collisions []meshgraph.Collision
	stats      meshgraph.Stats
}

// newInspectReport flattens a build result into table rows.
func newInspectReport(snap *topology.Snapshot, res *meshgraph.Result) inspectReport {
	r := inspectReport{
		collisions: res.Owners.Collisions(),
		stats:      res.Stats,
	}
	for i := range snap.Devices {
		d := &snap.Devices[i]
		links := 0
		for _, iface := range d.Interfaces {
			links += len(iface.Links)
		}
		r.devices = append(r.devices, deviceRow{
			al:         d.ALAddress,
			name:       d.DisplayName(),
			interfaces: len(d.Interfaces),
			links:      links,
			neighbors:  d.NeighborCount(),
		})
	}
	for k, l := range res.Links.All() {
		ownerA, _ := res.Owners.Owner(k.A)
		ownerB, _ := res.Owners.Owner(k.B)
		r.links = append(r.links, linkRow{
			a: k.A, b: k.B,
			ownerA: ownerA, ownerB: ownerB,
			label:  meshgraph.EdgeLabel(l.Metric()),
			bridge: l.Bridge,
			use:    l.Use,
		})
	}
	return r
}

// =============================================================================
// Tables
// =============================================================================

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

func (r inspectReport) deviceRows() [][]string {
	rows := make([][]string, len(r.devices))
	for i, d := range r.devices {
		rows[i] = []string{d.al, d.name, strconv.Itoa(d.interfaces), strconv.Itoa(d.links), strconv.Itoa(d.neighbors)}
	}
	return rows
}

func (r inspectReport) linkRows() [][]string {
	rows := make([][]string, len(r.links))
	for i, l := range r.links {
		rows[i] = []string{
			l.a + " ↔ " + l.b,
			orDash(l.ownerA) + " ↔ " + orDash(l.ownerB),
			orDash(l.label),
			yesNo(l.bridge),
			strconv.Itoa(l.use),
			yesNo(l.resolved()),
		}
	}
	return rows
}

func deviceTable(rows [][]string) *table.Table {
	return newTable("AL address", "Name", "Interfaces", "Links", "Neighbors").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorCyan).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		})
}

func linkTable(rows [][]string) *table.Table {
	return newTable("Interfaces", "Devices", "Label", "Bridge", "Use", "Resolved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(rows) {
				return lipgloss.NewStyle()
			}
			if rows[row][5] == "no" {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			if col == 3 && rows[row][3] == "yes" {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
}

func statsLines(r inspectReport) []string {
	s := r.stats
	lines := []string{
		fmt.Sprintf("%-18s %d", "Devices", s.Devices),
		fmt.Sprintf("%-18s %d", "Interfaces", s.Interfaces),
		fmt.Sprintf("%-18s %d", "Observations", s.Observations),
		fmt.Sprintf("%-18s %d", "Aggregated links", s.AggregatedLinks),
		fmt.Sprintf("%-18s %d", "Emitted links", s.EmittedLinks),
		fmt.Sprintf("%-18s %d", "Dropped links", s.DroppedLinks),
		fmt.Sprintf("%-18s %d", "Neighbor nodes", s.NeighborNodes),
		fmt.Sprintf("%-18s %d", "Owner collisions", s.OwnerCollisions),
	}
	for _, c := range r.collisions {
		lines = append(lines, fmt.Sprintf("  %s: %s → %s", c.Interface, c.Previous, c.Owner))
	}
	return lines
}

func printReport(r inspectReport) {
	fmt.Fprintln(stdout, StyleTitle.Render("Devices"))
	fmt.Fprintln(stdout, deviceTable(r.deviceRows()).Render())
	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Links"))
	if len(r.links) == 0 {
		printDetail("no links reported")
	} else {
		fmt.Fprintln(stdout, linkTable(r.linkRows()).Render())
	}
	printNewline()
	fmt.Fprintln(stdout, StyleTitle.Render("Build"))
	for _, l := range statsLines(r) {
		printDetail("%s", l)
	}
	if r.stats.OwnerCollisions > 0 {
		printWarning("%d interface(s) claimed by more than one device", r.stats.OwnerCollisions)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// viewWindow returns the rows visible at offset for a height-row window.
func viewWindow(rows [][]string, offset, height int) [][]string {
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + height
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func joinLines(lines []string) string { return strings.Join(lines, "\n") }

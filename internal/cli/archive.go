package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshtower/pkg/archive"
	"github.com/matzehuels/meshtower/pkg/topology"
)

// archiveCommand creates the archive command with subcommands.
func (c *CLI) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived topology snapshots",
		Long: `List and show snapshots stored with "render --archive".

The archive lives in the MongoDB collection named by archive.mongo_uri,
archive.database and archive.collection.`,
	}

	cmd.AddCommand(c.archiveListCommand())
	cmd.AddCommand(c.archiveShowCommand())

	return cmd
}

func (c *CLI) archiveListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			printArchiveList(entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", archive.DefaultListLimit, "maximum number of entries")
	return cmd
}

func (c *CLI) archiveShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openArchive(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return showArchiveEntry(entry, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the snapshot as get_topology JSON")
	return cmd
}

func printArchiveList(entries []archive.Entry) {
	if len(entries) == 0 {
		printInfo("Archive is empty")
		printNextStep("Archive a snapshot", "meshtower render --archive")
		return
	}
	fmt.Fprintln(stdout, archiveTable(entries, time.Now()).Render())
}

func archiveTable(entries []archive.Entry, now time.Time) *table.Table {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.ID,
			formatRelativeTime(e.CreatedAt, now),
			e.Source,
			strconv.Itoa(e.Devices),
			strconv.Itoa(e.Interfaces),
			strconv.Itoa(e.Links),
		}
	}
	return newTable("ID", "Created", "Source", "Devices", "Interfaces", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorGray)
			case col >= 3:
				return lipgloss.NewStyle().Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		})
}

func showArchiveEntry(e *archive.Entry, asJSON bool) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	if asJSON {
		return topology.WriteJSON(snap, stdout)
	}

	printSuccess("Snapshot %s", StyleHighlight.Render(e.ID))
	printKeyValue("Source", e.Source)
	printKeyValue("Created", e.CreatedAt.Local().Format(time.DateTime))
	printKeyValue("Devices", strconv.Itoa(e.Devices))
	printKeyValue("Interfaces", strconv.Itoa(e.Interfaces))
	printKeyValue("Links", strconv.Itoa(e.Links))
	for i := range snap.Devices {
		d := &snap.Devices[i]
		printDetail("%s  %s", d.ALAddress, d.DisplayName())
	}
	printNewline()
	printNextStep("Render it", "meshtower render --from-archive "+e.ID)
	return nil
}

// formatRelativeTime formats t relative to now, e.g. "3h ago".
func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

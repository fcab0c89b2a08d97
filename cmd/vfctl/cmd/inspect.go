package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/geom"
	"github.com/vectorflow/vectorflow/internal/scene"
)

var inspectSample bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [drawing.json]",
	Short: "List the shapes, groups and guides of a drawing",
	Long: `Load a drawing document and print every shape with its scene bounds,
followed by the guides, grid settings and the bounds of all top-level shapes.

Examples:
  vfctl inspect drawing.json
  vfctl inspect --sample`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectSample, "sample", false, "inspect the built-in sample drawing")
}

func runInspect(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	e, err := openDrawing(path, inspectSample)
	if err != nil {
		return err
	}
	printDrawing(cmd.OutOrStdout(), e)
	return nil
}

func printDrawing(out io.Writer, e *engine.Engine) {
	doc := e.Document()
	sc := e.Scene()

	fmt.Fprintf(out, "Drawing %s %q  %gx%g\n\n", doc.ID, doc.Name, doc.Width, doc.Height)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tGROUP\tBOUNDS")
	for _, s := range sc.Shapes() {
		group := "-"
		if s.GroupID() != "" {
			group = s.GroupID()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID(), s.Kind(), nameOr(s.Name(), "-"), group, formatRect(s.SceneBounds()))
	}
	tw.Flush()

	fmt.Fprintf(out, "\nGuides (%d):\n", len(sc.Guides()))
	for _, g := range sc.Guides() {
		state := "visible"
		if !g.Visible {
			state = "hidden"
		}
		fmt.Fprintf(out, "  %-10s %8.2f  %s\n", g.Orientation, g.Position, state)
	}

	grid := sc.Grid()
	fmt.Fprintf(out, "\nGrid: size %g, snap %t, visible %t\n", grid.Size, grid.Snap, grid.Visible)
	fmt.Fprintf(out, "Extent: %s\n", formatRect(scene.UnionBounds(sc.TopLevel())))
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func formatRect(r geom.Rect) string {
	return fmt.Sprintf("%g,%g %gx%g", r.X, r.Y, r.Width, r.Height)
}

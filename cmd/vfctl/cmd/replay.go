package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vectorflow/vectorflow/internal/engine"
	"github.com/vectorflow/vectorflow/internal/gesture"
	"github.com/vectorflow/vectorflow/internal/preview"
)

var (
	replayDoc    string
	replaySample bool
	replayOut    string
	replayPNG    string
	replayScale  float64
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.vfg>",
	Short: "Replay a gesture script against a drawing",
	Long: `Run a gesture script (press, move, release, key, tick, select and
expect steps) through the editor engine. The command fails at the first
step that errors or whose expectation does not hold.

Examples:
  vfctl replay --sample testdata/scale.vfg
  vfctl replay --doc drawing.json --out result.json script.vfg
  vfctl replay --sample --png frame.png script.vfg`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayDoc, "doc", "d", "", "drawing document to start from")
	replayCmd.Flags().BoolVar(&replaySample, "sample", false, "start from the built-in sample drawing")
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "", "write the resulting document to this file")
	replayCmd.Flags().StringVar(&replayPNG, "png", "", "render the final frame, overlay included, to this PNG")
	replayCmd.Flags().Float64Var(&replayScale, "scale", 1, "PNG scale")
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := gesture.ParseFile(args[0])
	if err != nil {
		return err
	}

	// Scripts may load the sample themselves, so an empty start is fine.
	var e *engine.Engine
	if replayDoc != "" || replaySample {
		e, err = openDrawing(replayDoc, replaySample)
	} else {
		e, err = emptyEngine()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runner := gesture.NewRunner(e, startTime)
	if verbose {
		runner.OnStep = func(st *gesture.Step) {
			fmt.Fprintf(out, "%4d  %s\n", st.Pos.Line, stepName(st))
		}
	}
	if err := runner.Run(script); err != nil {
		return err
	}

	st := e.State()
	fmt.Fprintf(out, "replayed %d steps: %d selected, bounds %s, undo %q\n",
		len(script.Steps), len(e.Selection()), formatRect(st.Bounds), st.UndoName)

	if replayOut != "" {
		data, err := e.Document().JSON()
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := os.WriteFile(replayOut, data, 0o644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	}

	if replayPNG != "" {
		doc := e.Document()
		return writePNG(replayPNG, e.DrawCommands(), preview.Options{
			Width:   int(doc.Width * replayScale),
			Height:  int(doc.Height * replayScale),
			Scale:   replayScale,
			Overlay: true,
		})
	}
	return nil
}

func stepName(st *gesture.Step) string {
	switch {
	case st.LoadSample:
		return "load sample"
	case st.Press != nil:
		return fmt.Sprintf("press %g %g", st.Press.X, st.Press.Y)
	case st.Move != nil:
		return fmt.Sprintf("move %g %g", st.Move.X, st.Move.Y)
	case st.Release != nil:
		return fmt.Sprintf("release %g %g", st.Release.X, st.Release.Y)
	case st.Drag != nil:
		return "drag"
	case st.Key != nil:
		return "key"
	case st.Tick != nil:
		return fmt.Sprintf("tick %g", *st.Tick)
	case st.Select != nil:
		return "select"
	case st.Zoom != nil:
		return fmt.Sprintf("zoom %g", *st.Zoom)
	case st.Guide != nil:
		return "guide"
	case st.Undo:
		return "undo"
	case st.Redo:
		return "redo"
	case st.Cancel:
		return "cancel"
	case st.Expect != nil:
		return "expect"
	}
	return "?"
}

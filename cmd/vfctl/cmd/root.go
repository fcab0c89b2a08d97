package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/engine"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vfctl",
	Short: "vectorflow drawing tools",
	Long: `Command line tools for vectorflow drawings: database migration,
document inspection, gesture script replay and PNG previews.

Examples:
  vfctl migrate                                  # Apply the schema to DATABASE_URL
  vfctl inspect drawing.json                     # List shapes, groups and guides
  vfctl replay --sample scale.vfg                # Replay a gesture script
  vfctl preview --sample -o sample.png --overlay # Render the sample drawing`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// openDrawing returns an engine holding the drawing at path, or the
// built-in sample when path is empty and sample is set.
func openDrawing(path string, sample bool) (*engine.Engine, error) {
	cfg, err := config.LoadEditor()
	if err != nil {
		return nil, fmt.Errorf("load editor config: %w", err)
	}
	e := engine.NewEngine(cfg)

	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read drawing: %w", err)
		}
		if err := e.LoadDocument(string(data)); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	case sample:
		e.LoadSampleDocument("drw_sample")
	default:
		return nil, fmt.Errorf("a drawing file or --sample is required")
	}
	return e, nil
}

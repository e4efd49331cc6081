package main

import (
	"os"

	"github.com/spf13/cobra"

	"xreposters/pkg/draw"
	"xreposters/pkg/models"
	"xreposters/pkg/storage"
	"xreposters/pkg/ui"
)

var (
	drawIn    string
	drawCount int
	drawJSON  bool
)

// drawCmd represents the draw command
var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw winners from a saved crawl result",
	Example: `  # Draw three winners from the default output file
  xreposters draw --count 3

  # Print the winners as JSON
  xreposters draw --in data/retweeters.json --count 5 --json`,
	Args: cobra.NoArgs,
	Run:  runDraw,
}

func init() {
	rootCmd.AddCommand(drawCmd)

	drawCmd.Flags().StringVarP(&drawIn, "in", "i", "", "result file (default is the configured output path)")
	drawCmd.Flags().IntVarP(&drawCount, "count", "n", 1, "number of winners")
	drawCmd.Flags().BoolVar(&drawJSON, "json", false, "print winners as JSON")
}

func runDraw(cmd *cobra.Command, args []string) {
	path := drawIn
	if path == "" {
		cfg, err := loadConfig(nil)
		if err != nil {
			fail("Failed to load configuration", err)
		}
		path = cfg.Output.Path
	}

	result, err := drawFromFile(path, drawCount)
	if err != nil {
		fail("Draw failed", err)
	}

	if drawJSON {
		if err := storage.Encode(os.Stdout, result); err != nil {
			fail("Failed to print winners", err)
		}
		return
	}
	ui.PrintHighlight("Winners")
	ui.PrintUsers(result.Winners)
}

// drawFromFile loads a saved result and draws count winners from it
func drawFromFile(path string, count int) (models.DrawResult, error) {
	loaded, err := storage.LoadResult(path)
	if err != nil {
		return models.DrawResult{}, err
	}

	winners, err := draw.Draw(loaded.Users, count, nil)
	if err != nil {
		return models.DrawResult{}, err
	}
	return models.DrawResult{Winners: winners, Count: len(winners)}, nil
}

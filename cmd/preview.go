package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagMaxChars int

var previewCmd = &cobra.Command{
	Use:   "preview <file|->",
	Short: "Render the feed-card preview of a post",
	Long: `Preview normalizes a post and folds its media into one placeholder per kind.
Posts longer than --max-chars get a "read more" marker.

Examples:
  postpipe preview post.html
  cat post.html | postpipe preview - --max-chars 120`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagMaxChars < 0 {
			return fmt.Errorf("--max-chars must not be negative")
		}
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), newPipeline(flagMaxChars).Preview(raw))
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render the full view of a post",
	Long: `Render rebuilds interactive media (video playback, attachment links) and hides
authoring controls. The output can be loaded back into the editor.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), newPipeline(0).Full(raw))
		return nil
	},
}

func init() {
	previewCmd.Flags().IntVar(&flagMaxChars, "max-chars", 0, "Plain-text budget (default from POSTPIPE_PREVIEW_MAX_CHARS)")
	rootCmd.AddCommand(previewCmd, renderCmd)
}

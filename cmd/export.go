// Package cmd — export command.
// Runs a post through the pipeline and writes one archive format:
// read → normalize → full view → export → write.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/postpipe/core/export"
	"github.com/gaurav-prasanna/postpipe/core/output"
)

// Flag variables.
var (
	flagPDF       bool
	flagMarkdown  bool
	flagJSON      bool
	flagTitle     string
	flagOutputDir string
)

var exportCmd = &cobra.Command{
	Use:   "export <file|->",
	Short: "Export a post as Markdown, PDF or a JSON manifest",
	Long: `Export renders the published view of a post and converts it to the chosen
format. Media is listed in the JSON manifest and at the end of the PDF.

Examples:
  postpipe export post.html --markdown
  postpipe export post.html --json --output_dir ./out
  postpipe export - --pdf --title "Week 3 reflections" < post.html`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	// Output format flags (mutually exclusive).
	exportCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	exportCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	exportCmd.Flags().BoolVar(&flagJSON, "json", false, "Output JSON manifest")

	exportCmd.Flags().StringVar(&flagTitle, "title", "", "Document title")
	exportCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	source := args[0]

	if err := validateFlags(); err != nil {
		return err
	}
	exporter, err := selectExporter()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, source)
	if err != nil {
		return err
	}

	p := newPipeline(0)
	doc, err := export.NewDocument(flagTitle, source, p.Published(raw), p.Media(raw))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	path, err := writer.Write(source, data, exporter.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s\n", path)
	return nil
}

// validateFlags checks that exactly one output format is chosen.
func validateFlags() error {
	formatCount := 0
	for _, set := range []bool{flagPDF, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}
	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --pdf, --markdown, or --json")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}
	return nil
}

// selectExporter creates the Exporter named by the flags.
func selectExporter() (export.Exporter, error) {
	switch {
	case flagMarkdown:
		return export.NewMarkdownExporter(), nil
	case flagJSON:
		return export.NewJSONExporter(), nil
	case flagPDF:
		return export.NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("no output format selected")
	}
}

// Package cmd implements the CLI commands for postpipe using Cobra.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/postpipe/config"
	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/pipeline"
	"github.com/gaurav-prasanna/postpipe/core/render"
)

var (
	flagConfig string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "postpipe",
	Short: "postpipe — render rich posts and manage their embedded media",
	Long: `postpipe normalizes rich-post HTML, renders feed previews and full views,
and keeps uploaded media in step with the posts that reference them.

Usage:
  postpipe preview <file|-> [flags]
  postpipe render <file|->
  postpipe media ls|upload|rm ...
  postpipe export <file|-> --markdown|--pdf|--json

Configuration comes from the environment (see "postpipe help-env") or --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = c
		logger = setupLogger(cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(logger)
		return nil
	},
}

var helpEnvCmd = &cobra.Command{
	Use:   "help-env",
	Short: "List the environment variables postpipe reads",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (yaml, toml, json or .env); environment overrides it")
	rootCmd.AddCommand(helpEnvCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger builds the CLI logger. Logs go to stderr so stdout carries
// only command output.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel, AddSource: logLevel == slog.LevelDebug}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newPipeline builds the render pipeline from the loaded config.
func newPipeline(maxChars int) *pipeline.Pipeline {
	if maxChars <= 0 {
		maxChars = cfg.Render.PreviewMaxChars
	}
	return pipeline.New(pipeline.Options{
		BaseURL:         cfg.Render.AssetBaseURL,
		Prefixes:        prefixes(),
		MaxRepairPasses: cfg.Render.MaxRepairPasses,
		PreviewMaxChars: maxChars,
		Hooks: render.Hooks{
			OnUnresolved: func(ref core.MediaReference) {
				logger.Warn("media reference unresolvable", "kind", ref.Kind, "name", ref.DisplayName)
			},
		},
		Logger: logger,
	})
}

func prefixes() assets.Prefixes {
	return assets.NewPrefixes(cfg.Render.Prefixes()...)
}

// readInput reads a document from a file, or from stdin when arg is "-".
func readInput(cmd *cobra.Command, arg string) (string, error) {
	var r io.Reader
	if arg == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", arg, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", arg, err)
	}
	return string(data), nil
}

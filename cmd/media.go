package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/postpipe/core"
	"github.com/gaurav-prasanna/postpipe/core/assets"
	"github.com/gaurav-prasanna/postpipe/core/lifecycle"
	"github.com/gaurav-prasanna/postpipe/core/store"
)

var (
	flagLsJSON  bool
	flagOwner   string
	flagKind    string
	flagMetrics bool
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "List, upload and remove post media",
}

var mediaLsCmd = &cobra.Command{
	Use:   "ls <file|->",
	Short: "List the media a post references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		refs := newPipeline(0).Media(raw)
		if flagLsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if refs == nil {
				refs = []core.MediaReference{}
			}
			return enc.Encode(refs)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tNAME\tSIZE\tKEY\tURL")
		for _, r := range refs {
			size := "-"
			if r.SizeBytes > 0 {
				size = humanize.Bytes(uint64(r.SizeBytes))
			}
			url := r.URL
			if !r.Resolvable() {
				url = "(unresolvable)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Kind, orDash(r.DisplayName), size, orDash(r.StorageKey), url)
		}
		return tw.Flush()
	},
}

var mediaUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file and print the markup to insert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := core.ParseMediaKind(flagKind)
		if flagKind != "" && kind == core.KindNone {
			return fmt.Errorf("unknown --kind %q: want image, video, audio or file", flagKind)
		}
		if flagKind == "" {
			kind = assets.KindForExt(assets.Ext(args[0]))
		}
		if kind == core.KindNone {
			kind = core.KindFile
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", args[0], err)
		}

		ctx := cmd.Context()
		mgr, reg, err := newManager(ctx)
		if err != nil {
			return err
		}
		out := &fragmentWriter{w: cmd.OutOrStdout()}
		ref, err := mgr.UploadMedia(ctx, out, lifecycle.Upload{
			Owner: flagOwner,
			Name:  filepath.Base(args[0]),
			Size:  info.Size(),
			Body:  f,
			Progress: func(sent, total int64) {
				logger.Debug("upload progress", "sent", sent, "total", total)
			},
		}, kind)
		if err != nil {
			return err
		}
		logger.Info("uploaded", "storage_key", ref.StorageKey, "url", ref.URL)
		return dumpMetrics(cmd.ErrOrStderr(), reg)
	},
}

var mediaRmCmd = &cobra.Command{
	Use:   "rm <url-or-key>...",
	Short: "Delete stored media (best effort)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, reg, err := newManager(ctx)
		if err != nil {
			return err
		}
		for _, a := range args {
			mgr.RemoveMedia(ctx, a)
		}
		return dumpMetrics(cmd.ErrOrStderr(), reg)
	},
}

func init() {
	mediaLsCmd.Flags().BoolVar(&flagLsJSON, "json", false, "Print references as JSON")
	mediaUploadCmd.Flags().StringVar(&flagOwner, "owner", "", "Owner id the storage key is scoped to")
	mediaUploadCmd.Flags().StringVar(&flagKind, "kind", "", "image, video, audio or file (default: from extension)")
	mediaCmd.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "Print media metrics to stderr when done")

	mediaCmd.AddCommand(mediaLsCmd, mediaUploadCmd, mediaRmCmd)
	rootCmd.AddCommand(mediaCmd)
}

// newManager opens the configured Asset Store and wraps it in a Manager
// with metrics on a private registry.
func newManager(ctx context.Context) (*lifecycle.Manager, *prometheus.Registry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening asset store: %w", err)
	}
	reg := prometheus.NewRegistry()
	metrics, err := lifecycle.NewMetrics(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("registering metrics: %w", err)
	}
	mgr := lifecycle.New(s, lifecycle.Config{
		BaseURL:        cfg.Render.AssetBaseURL,
		Prefixes:       prefixes(),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		DeferDeletes:   cfg.Storage.DeferDeletes,
	}, lifecycle.WithLogger(logger), lifecycle.WithMetrics(metrics))
	return mgr, reg, nil
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	if !flagMetrics {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// fragmentWriter is the CLI's insertion cursor: it prints the fragment.
type fragmentWriter struct {
	w io.Writer
}

func (f *fragmentWriter) InsertContent(fragment string) {
	fmt.Fprintln(f.w, fragment)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

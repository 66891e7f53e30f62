package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"modelhub/internal/download"
)

type downloadOptions struct {
	*globalOptions
	Force    bool
	Checksum string
	URL      string
	Quiet    bool
}

func newDownloadCommand(globalOpts *globalOptions) *cobra.Command {
	opts := &downloadOptions{globalOptions: globalOpts}
	cmd := &cobra.Command{
		Use:   "download <model>",
		Short: "Download and verify a model's weight file",
		Long: `Fetch the weight file for a registered model into <model_dir>/<model>/.

Interrupted transfers resume from the partial ".tmp" file. The result is
verified against the model's SHA-256 (from model_checksums or --checksum);
without a checksum the download is refused unless --force is given.`,
		Example: `  modelhub download qwen-coder --checksum 3f1c...
  modelhub download qwen-coder-small --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "re-download even if present; allow a missing checksum")
	cmd.Flags().StringVar(&opts.Checksum, "checksum", "", "expected SHA-256 (overrides the configured value)")
	cmd.Flags().StringVar(&opts.URL, "url", "", "download from this URL instead of the catalog source")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "no progress output")
	return cmd
}

func runDownload(cmd *cobra.Command, opts *downloadOptions, name string) error {
	cfg, err := loadConfig(opts.globalOptions)
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}
	desc, err := reg.Describe(name)
	if err != nil {
		return err
	}
	canonical := reg.Canonical(name)
	url := opts.URL
	if url == "" {
		url = desc.Metadata.DownloadURL
	}
	if url == "" {
		return fmt.Errorf("model %s has no download url; pass --url", canonical)
	}
	checksum := opts.Checksum
	if checksum == "" {
		checksum = desc.Metadata.SHA256
	}

	req := download.Request{
		URL:       url,
		ModelName: canonical,
		Checksum:  checksum,
		Force:     opts.Force,
	}
	if !opts.Quiet {
		req.Progress = progressPrinter(cmd.ErrOrStderr())
	}
	res, err := newDownloader(cfg, log).Download(cmd.Context(), req)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s) %s\n", canonical, res.Outcome, humanize.IBytes(uint64(res.Bytes)), res.Path)
	return nil
}

// progressPrinter redraws a single status line whenever the whole percentage
// changes, or every 8 MiB when the total is unknown.
func progressPrinter(w io.Writer) download.ProgressFunc {
	last := int64(-1)
	return func(done, total int64) {
		step := done >> 23
		if total > 0 {
			step = done * 100 / total
		}
		if step == last {
			return
		}
		last = step
		if total > 0 {
			fmt.Fprintf(w, "\r%s / %s (%d%%)", humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)), step)
			return
		}
		fmt.Fprintf(w, "\r%s", humanize.IBytes(uint64(done)))
	}
}

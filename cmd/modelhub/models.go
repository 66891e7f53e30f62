package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelhub/internal/download"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

type modelsOptions struct {
	*globalOptions
	Language   string
	MinContext int
	GPU        string
	MaxMemory  float64
}

func newModelsCommand(globalOpts *globalOptions) *cobra.Command {
	opts := &modelsOptions{globalOptions: globalOpts}
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List the model catalog",
		Long: `List registered models with their capabilities and whether a weight file
is already on disk. Filters combine; an unset filter matches everything.`,
		Example: `  # Models that handle Go with at least 32k context
  modelhub models --language go --min-context 32768

  # Models that fit in 4 GB without a GPU
  modelhub models --max-memory 4 --gpu=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Language, "language", "", "only models supporting this language")
	cmd.Flags().IntVar(&opts.MinContext, "min-context", 0, "minimum context length in tokens")
	cmd.Flags().StringVar(&opts.GPU, "gpu", "", "filter on GPU support: true|false")
	cmd.Flags().Float64Var(&opts.MaxMemory, "max-memory", 0, "only models whose minimum memory fits in this many GB")
	return cmd
}

func (o *modelsOptions) query() (registry.Query, error) {
	q := registry.Query{Language: o.Language, MinContext: o.MinContext, MaxMemoryGB: o.MaxMemory}
	switch strings.ToLower(o.GPU) {
	case "":
	case "true", "yes", "1":
		v := true
		q.SupportsGPU = &v
	case "false", "no", "0":
		v := false
		q.SupportsGPU = &v
	default:
		return q, fmt.Errorf("--gpu must be true or false, got %q", o.GPU)
	}
	return q, nil
}

func runModels(cmd *cobra.Command, opts *modelsOptions) error {
	q, err := opts.query()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.globalOptions)
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}
	mgr := newManager(cfg, reg, newDownloader(cfg, zerolog.Nop()), log)
	defer mgr.Shutdown()

	models := mgr.FindModels(q)
	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintln(out, "No models match.")
		return nil
	}
	printModels(out, models)
	return nil
}

func printModels(out io.Writer, models []types.Model) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tALIASES\tCONTEXT\tMIN MEM\tGPU\tDOWNLOADED")
	for _, m := range models {
		aliases := "-"
		if len(m.Aliases) > 0 {
			aliases = strings.Join(m.Aliases, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f GB\t%t\t%t\n",
			m.Name, aliases, m.Capabilities.MaxContextLength, m.Capabilities.MinMemoryGB,
			m.Capabilities.SupportsGPU, m.Downloaded)
	}
	w.Flush()
}

func newDownloadsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "downloads",
		Short: "List weight files on disk",
		Long:  `List finished weight files under the model directory. In-progress ".tmp" files are not shown.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			found, err := download.ListDownloaded(cfg.ModelDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintf(out, "No models downloaded in %s.\n", cfg.ModelDir)
				return nil
			}
			names := make([]string, 0, len(found))
			for name := range found {
				names = append(names, name)
			}
			sort.Strings(names)
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MODEL\tFILES\tSIZE")
			for _, name := range names {
				mf := found[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(mf.Files, ","), humanize.IBytes(uint64(mf.TotalSize)))
			}
			return w.Flush()
		},
	}
}

func newCleanupTmpCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-tmp",
		Short: "Remove partial downloads",
		Long: `Remove orphaned ".tmp" files left behind by interrupted downloads.
Do not run it while a server is downloading into the same model directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			n, err := download.CleanupTempFiles(cfg.ModelDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d temporary file(s).\n", n)
			return nil
		},
	}
}

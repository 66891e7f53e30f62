package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelhub/internal/backend"
	"modelhub/internal/config"
	"modelhub/internal/download"
	"modelhub/internal/logging"
	"modelhub/internal/manager"
	"modelhub/internal/plugins"
	"modelhub/internal/registry"
)

const cliName = "modelhub"

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	// ConfigPath is an optional YAML, JSON or TOML file.
	ConfigPath string
	// LogLevel overrides log_level from the file and environment.
	LogLevel string
}

// newRootCommand builds the command tree.
//
// Settings resolve in order: defaults, the --config file, MODELHUB_*
// environment variables, then explicit flags.
func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   cliName,
		Short: "Local model registry, downloader and instance cache",
		Long: `modelhub keeps a catalog of local code-generation models, downloads their
weight files with resume and SHA-256 verification, and serves an HTTP API
that loads models on demand into a memory-bounded LRU cache.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .json or .toml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error|off")

	cmd.AddCommand(
		newServeCommand(opts),
		newModelsCommand(opts),
		newDownloadCommand(opts),
		newDownloadsCommand(opts),
		newCleanupTmpCommand(opts),
	)
	return cmd
}

// loadConfig resolves the effective configuration for opts.
func loadConfig(opts *globalOptions) (config.Config, error) {
	var cfg config.Config
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat, w)
}

// buildRegistry registers the built-in backends with checksums from cfg.
func buildRegistry(cfg config.Config, log zerolog.Logger) (*registry.Registry, error) {
	reg := registry.New(log)
	if err := plugins.RegisterBuiltins(reg, plugins.Options{Checksums: cfg.ModelChecksums}); err != nil {
		return nil, err
	}
	return reg, nil
}

func newDownloader(cfg config.Config, log zerolog.Logger) *download.Downloader {
	return download.New(download.Config{
		Dir:            cfg.ModelDir,
		MaxAttempts:    cfg.Download.MaxAttempts,
		InitialBackoff: cfg.Download.InitialBackoff(),
		MaxBackoff:     cfg.Download.MaxBackoff(),
		UserAgent:      cfg.Download.UserAgent,
		Logger:         log,
	})
}

func newManager(cfg config.Config, reg *registry.Registry, dl *download.Downloader, log zerolog.Logger) *manager.Manager {
	var modelConfigs map[string]backend.Config
	if len(cfg.ModelConfigs) > 0 {
		modelConfigs = make(map[string]backend.Config, len(cfg.ModelConfigs))
		for name, mc := range cfg.ModelConfigs {
			modelConfigs[name] = backend.Config(mc)
		}
	}
	return manager.New(manager.Config{
		Registry:             reg,
		Downloader:           dl,
		Logger:               log,
		ModelDir:             cfg.ModelDir,
		DefaultModel:         cfg.DefaultModel,
		AutoDownload:         cfg.AutoDownload,
		MaxLoadedModels:      cfg.MaxLoadedModels,
		ModelTTL:             cfg.ModelTTL(),
		MinAvailableMemoryGB: cfg.MinAvailableMemoryGB,
		ModelPaths:           cfg.ModelPaths,
		ModelConfigs:         modelConfigs,
		WarmupOnLoad:         cfg.WarmupOnLoad,
	})
}

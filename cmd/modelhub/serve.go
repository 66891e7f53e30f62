package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"modelhub/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the HTTP API and the idle-model janitor. Models load on first use
and are unloaded on shutdown (SIGINT or SIGTERM).`,
		Example: `  modelhub serve --addr :9090
  modelhub serve -c /etc/modelhub/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides addr / MODELHUB_ADDR)")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, addr string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log := newLogger(cfg, os.Stderr)
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}
	mgr := newManager(cfg, reg, newDownloader(cfg, log), log)
	defer mgr.Shutdown()

	if rep := mgr.SanityCheck(); rep.Error != "" {
		log.Warn().Str("model_dir", rep.ModelDir).Str("err", rep.Error).Msg("serve event=sanity_failed")
	}

	httpapi.SetLogger(log)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins)
	httpapi.SetBaseContext(ctx)
	httpapi.SetGenerateTimeout(cfg.GenerateTimeout())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	go mgr.RunJanitor(ctx, cfg.JanitorInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model_dir", cfg.ModelDir).Int("models", len(reg.ListNames())).Msg("serve event=listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("serve event=shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("serve event=shutdown_error")
	}
	return nil
}

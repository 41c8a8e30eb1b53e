package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/2002Bishwajeet/ogbanana/internal/app"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve starts the execution API: /meta, /executions, the websocket event
stream, persisted rows, the user-created hook and the credit reset job.

Examples:
  ogbanana serve
  ogbanana serve --addr :9090 --config ./ogbanana.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath, os.Stdout)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides http.addr)")
	return cmd
}

// runServe blocks until ctx is done or the listener fails, then drains.
func runServe(ctx context.Context, cfg *app.Config, logger logging.Logger) error {
	a, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}

	srv, err := server.NewServer(server.ConfigFromApp(cfg, logger), server.ServicesFromApp(a))
	if err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}
	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.HTTP.Addr})
		errCh <- httpServer.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", logging.Err(err))
	}
	if err := srv.Close(shutdownCtx); err != nil {
		logger.Warn("execution shutdown", logging.Err(err))
	}
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Warn("application shutdown", logging.Err(err))
	}
	return serveErr
}

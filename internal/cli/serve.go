package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskflow/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("static", "", "directory with the built web UI")
	_ = a.v.BindPFlag("http.static_dir", cmd.Flags().Lookup("static"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger
	logger.Info("taskflow starting", slog.String("version", appVersion))

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := a.services(store)
	if err != nil {
		return err
	}

	ready := server.NewReadiness()
	srv := server.New(svc, ready, logger, a.cfg.HTTP.StaticDir)

	httpServer := &http.Server{
		Addr:    a.cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.seedIfEmpty(ctx, store); err != nil {
		logger.Error("database not ready", slog.String("error", err.Error()))
		ready.MarkFailed(err)
	} else {
		ready.MarkReady()
		logger.Info("database ready", slog.String("path", a.cfg.DB.Path))
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server stopped unexpectedly", slog.String("error", serveErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return serveErr
}

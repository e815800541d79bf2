package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetqueue-go/internal/server"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the queue over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg.Server
			if addr != "" {
				host, port, err := splitAddr(addr)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --addr", err)
				}
				cfg.Host, cfg.Port = host, port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("configuration loaded", "config", opts.cfg.String())

			return opts.withRepository(ctx, func(repo *sheetqueue.Repository) error {
				srv := server.New(repo, cfg)

				errCh := make(chan error, 1)
				go func() {
					errCh <- srv.Start()
				}()

				select {
				case err := <-errCh:
					if !errors.Is(err, http.ErrServerClosed) {
						return WrapExitError(ExitCommandError, "server", err)
					}
					return nil
				case <-ctx.Done():
				}

				slog.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("shutdown error", "error", err)
					return err
				}
				<-errCh
				slog.Info("server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (default from SERVER_HOST and SERVER_PORT)")

	return cmd
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	grpcserver "taskTracker/internal/grpc"
	"taskTracker/internal/httpapi"
)

const (
	shutdownTimeout = 5 * time.Second
	purgeInterval   = time.Hour
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.build(cmd, true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs until ctx is cancelled, then shuts both servers down.
func (a *app) serve(ctx context.Context) error {
	web := httpapi.NewApp(httpapi.Deps{
		Tasks:         a.tasks,
		Accounts:      a.accounts,
		Authenticator: a.authn,
		Logger:        a.logger,
		Ping:          func() error { return a.db.PingContext(ctx) },
	})

	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("address", a.cfg.HTTP.Address))
		httpErr <- web.Listen(a.cfg.HTTP.Address)
	}()

	var stopGRPC func(context.Context) error
	if a.cfg.GRPC.Address != "" {
		var err error
		stopGRPC, err = grpcserver.StartGRPC(a.cfg.GRPC.Address, a.authn, a.tasks, a.logger)
		if err != nil {
			_ = web.Shutdown()
			return err
		}
	}

	go a.purgeRevokedTokens(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-httpErr:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopGRPC != nil {
		if err := stopGRPC(shutdownCtx); err != nil {
			a.logger.Error("grpc shutdown", slog.String("error", err.Error()))
		}
	}
	if err := web.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// purgeRevokedTokens drops revocation entries whose tokens have expired anyway.
func (a *app) purgeRevokedTokens(ctx context.Context) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.tokens.PurgeExpired(ctx, now)
			if err != nil {
				a.logger.Warn("purge revoked tokens", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.Debug("purged revoked tokens", slog.Int64("count", n))
			}
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve character pages and avatars over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := a.catalogClient()
			if err != nil {
				return err
			}
			images, redisClient, closeFn, err := a.imageCache(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			var ping pinger
			if redisClient != nil {
				ping = redisClient
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           newServer(client, images, ping).routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().
					Str("addr", srv.Addr).
					Str("base_url", a.cfg.BaseURL).
					Bool("shared_tier", redisClient != nil).
					Msg("Starting catalog server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info().Msg("Shutting down catalog server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

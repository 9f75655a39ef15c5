package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/config"
	"github.com/ErkanEron/melonotes/internal/seed"
	"github.com/ErkanEron/melonotes/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MELONOTES API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		st, err := openStore(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := seed.Apply(ctx, st, log, false); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}

		authn := auth.New(cfg.Auth.Secret, cfg.TokenTTL())
		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: server.New(st, authn, cfg.UploadsDir, log).Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("listen", cfg.Listen).Str("backend", cfg.Backend).Msg("server started")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down cleanly: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

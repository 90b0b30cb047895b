package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage server",
	Long: `Runs the HTTP decision API.

Admin routes (audit log, explain, history, tasks) require a session token signed with
admin.signing_key (or TRIAGE_ADMIN_SIGNING_KEY), see 'triage token mint'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := f.BuildRuntime(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				log.Error().Err(err).Msg("shutdown incomplete")
			}
		}()

		if cfg.PolicySource != nil {
			// the configured rules stay active if the first sync fails
			if err := rt.Tasks.RunNow(ctx, tasks.RuleSyncTask); err != nil {
				log.Warn().Err(err).Msg("initial rule sync failed, using configured rules")
			}
		}

		signingKey := f.SigningKey(cfg)
		if len(signingKey) == 0 {
			log.Warn().Msg("no admin signing key configured, admin routes are disabled")
		}

		srv := api.NewServer(rt.Service, rt.Tasks, cfg.PolicySource)
		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(signingKey),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server crashed: %w", err)
			}
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "address to listen on")
}

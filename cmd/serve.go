package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clarityhq/clarity/internal/server"
)

var serveListenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Clarity proxy daemon",
	Long: `Starts the HTTP proxy that browser clients POST to. It exposes
/api/generate (the action-routed generation endpoint), /healthz, and
/metrics. The upstream credential comes from the OS keychain or the
CLARITY_LLM_API_KEY environment variable; requests may also carry their
own apiKey in the body.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := GetProvider()
		if err != nil {
			return fmt.Errorf("failed to initialize provider: %w", err)
		}

		listenAddr := provider.AppConfig.ListenAddr
		if serveListenAddr != "" {
			listenAddr = serveListenAddr
		}

		// A missing configured credential is not fatal: requests can
		// carry their own apiKey, and the proxy answers 401 otherwise.
		apiKey, keyErr := provider.Config.GetAPIKey()
		if keyErr != nil {
			Log.Warn().Err(keyErr).Msg("No configured API key; requests must supply their own")
			apiKey = ""
		}

		factory := NewOpenAIFactory(provider.AppConfig, provider.Templates)
		srv, err := server.New(apiKey, factory)
		if err != nil {
			return fmt.Errorf("failed to create proxy server: %w", err)
		}

		return serveRun(cmd.Context(), srv, listenAddr)
	},
}

// serveRun starts the HTTP server on listenAddr and blocks until the
// context is cancelled or SIGINT/SIGTERM arrives, then shuts down
// gracefully.
func serveRun(ctx context.Context, srv *server.Server, listenAddr string) error {
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Upstream calls are bounded at 20s; leave headroom for the
		// response write.
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		Log.Info().Str("addr", listenAddr).Msg("Clarity proxy listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			Log.Error().Err(err).Msg("Proxy server failed")
			return fmt.Errorf("proxy server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		Log.Info().Msg("Shutdown signal received, stopping proxy")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			Log.Error().Err(err).Msg("Graceful shutdown failed")
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return <-errCh
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "Listen address (overrides config listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/williampepple1/desktop-weekly-planner/internal/web"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run only the web board and JSON API",
		Long: `Run the web board and JSON API until interrupted.

Examples:
  weekly-planner serve
  weekly-planner serve --port 9090 --db ./planner.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if port == 0 {
				port = a.cfg.WebPort
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Web server running at http://localhost:%d\n", port)
			return serveHTTP(ctx, newHTTPServer(a, port), a.logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "web server port (defaults to web_port from config)")
	return cmd
}

func newHTTPServer(a *app, port int) *http.Server {
	if !a.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           web.NewServer(a.svc, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("web server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"surveybridge/internal/api"
	"surveybridge/internal/bootstrap"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long:  "Serves the webhook ingestion, survey discovery and respondent redirect endpoints.",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		handler := api.NewHandler(svc.Ingest, svc.Supply, svc.Prescreen)
		server := &http.Server{
			Addr:              app.Config.Server.Addr,
			Handler:           api.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if app.Config.RateCards.Watch {
			go func() {
				if err := svc.Watcher.Run(ctx); err != nil {
					logging.Error(ctx, "rate card watcher stopped", slog.Any("err", errs.Loggable(err)))
				}
			}()
		}

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", server.Addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-ctx.Done():
		}

		logging.Info(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"surveybridge/internal/bootstrap"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
	sqlrepo "surveybridge/internal/infrastructure/persistence/sql/repository"
	"surveybridge/internal/infrastructure/ratecard"
)

// initDbCmd represents the init-db command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema and seed rate cards",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		repo := sqlrepo.NewRateCardRepository(app.DB)
		if err := ratecard.Seed(ctx, repo, app.Config.RateCards.Dir); err != nil {
			logging.Error(ctx, "seed rate cards failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "seed rate cards")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", app.Config.Database.DSN))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized: %s\n", app.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"surveybridge/internal/bootstrap"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
	sqlrepo "surveybridge/internal/infrastructure/persistence/sql/repository"
	"surveybridge/internal/ports"
)

var catalogFlags struct {
	questionID  int64
	name        string
	question    string
	partnerCode string
}

// catalogCmd represents the catalog command group
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the qualification question catalog",
}

var catalogAddCmd = &cobra.Command{
	Use:   "add-question",
	Short: "Create or update a qualification catalog question",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *services) error {
		ctx := logging.WithAttrs(cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.Int64("question_id", catalogFlags.questionID),
		)

		catalog := sqlrepo.NewQualificationCatalog(app.DB)
		question := ports.CatalogQuestion{
			QuestionID:  catalogFlags.questionID,
			Name:        catalogFlags.name,
			Question:    catalogFlags.question,
			PartnerCode: catalogFlags.partnerCode,
		}
		if err := catalog.UpsertQuestion(ctx, question); err != nil {
			return errs.Wrap(err, "upsert catalog question")
		}

		logging.Info(ctx, "catalog question upserted", slog.String("name", question.Name))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "question %d (%s) upserted\n", question.QuestionID, question.Name); err != nil {
			return errs.Wrap(err, "write catalog output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogAddCmd)

	catalogAddCmd.Flags().Int64Var(&catalogFlags.questionID, "id", 0, "Question id")
	catalogAddCmd.Flags().StringVar(&catalogFlags.name, "name", "", "Short question name")
	catalogAddCmd.Flags().StringVar(&catalogFlags.question, "question", "", "Full question text")
	catalogAddCmd.Flags().StringVar(&catalogFlags.partnerCode, "partner-code", "", "Identifier surfaced to supply partners")
	_ = catalogAddCmd.MarkFlagRequired("id")
}

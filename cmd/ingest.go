package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"surveybridge/internal/bootstrap"
	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
)

var ingestFile string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process a survey event batch from a JSON file",
	Long:  "Reads a JSON array of survey events and runs it through the ingestion pipeline, for replays and backfills.",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("file", ingestFile),
		)

		raw, err := os.ReadFile(ingestFile)
		if err != nil {
			return errs.Wrapf(err, "read event file %q", ingestFile)
		}

		var events []survey.InboundEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			return errs.Wrap(err, "decode event file")
		}

		result, err := svc.Ingest.ProcessBatch(ctx, events)
		if err != nil {
			return errs.Wrap(err, "process batch")
		}

		logging.Info(ctx, "batch processed",
			slog.Int("received", result.Received),
			slog.Int("applied", len(result.Processed)),
			slog.Int("failed", len(result.Errors)),
		)
		for _, itemErr := range result.Errors {
			logging.Warn(ctx, "event failed",
				slog.Int("index", itemErr.Index),
				slog.String("survey_id", itemErr.SurveyID.String()),
				slog.Bool("invalid", itemErr.Invalid),
				slog.String("message", itemErr.Message),
			)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "processed %d/%d events (%d failed)\n",
			len(result.Processed), result.Received, len(result.Errors)); err != nil {
			return errs.Wrap(err, "write ingest output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Path to a JSON array of survey events")
	_ = ingestCmd.MarkFlagRequired("file")
}

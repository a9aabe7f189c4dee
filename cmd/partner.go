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

var partnerFlags struct {
	id           int64
	accountName  string
	apiKey       string
	usesRateCard bool
	rateCardID   string
	hashingKey   string
	completeURL  string
	terminateURL string
	overQuotaURL string
	qualityURL   string
}

// partnerCmd represents the partner command group
var partnerCmd = &cobra.Command{
	Use:   "partner",
	Short: "Manage supply partners",
}

var partnerUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update a supply partner",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *services) error {
		ctx := logging.WithAttrs(cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.Int64("partner_id", partnerFlags.id),
		)

		repo := sqlrepo.NewPartnerRepository(app.DB)
		partner := ports.SupplyPartner{
			PartnerID:    partnerFlags.id,
			AccountName:  partnerFlags.accountName,
			APIKey:       partnerFlags.apiKey,
			UsesRateCard: partnerFlags.usesRateCard,
			RateCardID:   partnerFlags.rateCardID,
			HashingKey:   partnerFlags.hashingKey,
			CompleteURL:  partnerFlags.completeURL,
			TerminateURL: partnerFlags.terminateURL,
			OverQuotaURL: partnerFlags.overQuotaURL,
			QualityURL:   partnerFlags.qualityURL,
		}
		if err := repo.Upsert(ctx, partner); err != nil {
			return errs.Wrap(err, "upsert partner")
		}

		logging.Info(ctx, "partner upserted", slog.String("account_name", partner.AccountName))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "partner %d (%s) upserted\n", partner.PartnerID, partner.AccountName); err != nil {
			return errs.Wrap(err, "write partner output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(partnerCmd)
	partnerCmd.AddCommand(partnerUpsertCmd)

	partnerUpsertCmd.Flags().Int64Var(&partnerFlags.id, "id", 0, "Partner id")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.accountName, "account-name", "", "Account name")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.apiKey, "api-key", "", "API key the partner authenticates with")
	partnerUpsertCmd.Flags().BoolVar(&partnerFlags.usesRateCard, "rate-card", false, "Price surveys from the partner's rate card")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.rateCardID, "rate-card-id", "", "Rate card id")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.hashingKey, "hashing-key", "", "Key used to sign respondent session tokens")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.completeURL, "complete-url", "", "Landing URL for completes")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.terminateURL, "terminate-url", "", "Landing URL for terminates")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.overQuotaURL, "overquota-url", "", "Landing URL for over-quotas")
	partnerUpsertCmd.Flags().StringVar(&partnerFlags.qualityURL, "quality-url", "", "Landing URL for quality terminates")
	_ = partnerUpsertCmd.MarkFlagRequired("id")
	_ = partnerUpsertCmd.MarkFlagRequired("api-key")
}

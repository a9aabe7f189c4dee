package ports

import (
	"context"
	"errors"

	"surveybridge/internal/domain/survey"
)

var (
	ErrPartnerNotFound  = errors.New("supply partner not found")
	ErrQuestionNotFound = errors.New("qualification question not found")
)

// SupplyPartner is the downstream partner record. Read-only from the
// ingestion pipeline's point of view.
type SupplyPartner struct {
	PartnerID   int64
	AccountName string
	APIKey      string

	// UsesRateCard selects tiered pricing off RateCardID instead of the
	// flat revenue share.
	UsesRateCard bool
	RateCardID   string

	// HashingKey signs respondent session tokens for this partner.
	HashingKey string

	CompleteURL  string
	TerminateURL string
	OverQuotaURL string
	QualityURL   string
}

type PartnerRepository interface {
	// FindByAPIKey returns ErrPartnerNotFound for unknown keys.
	FindByAPIKey(ctx context.Context, apiKey string) (SupplyPartner, error)
	FindByID(ctx context.Context, partnerID int64) (SupplyPartner, error)
	Upsert(ctx context.Context, partner SupplyPartner) error
}

// RateCardRepository stores partner tariff tables. The ingestion pipeline
// never mutates them; seeding and hot reload go through UpsertCard.
type RateCardRepository interface {
	ListEntries(ctx context.Context, rateCardID string) ([]survey.RateEntry, error)
	UpsertCard(ctx context.Context, card survey.RateCard) error
}

// CatalogQuestion is the human-readable metadata behind a qualification
// question id.
type CatalogQuestion struct {
	QuestionID int64
	Name       string
	Question   string
	// PartnerCode is the identifier surfaced to supply partners in place
	// of the raw question id when present.
	PartnerCode string
}

type QualificationCatalog interface {
	// FindQuestion returns ErrQuestionNotFound on a miss; discovery falls
	// back to the raw question id.
	FindQuestion(ctx context.Context, questionID int64) (CatalogQuestion, error)
	UpsertQuestion(ctx context.Context, question CatalogQuestion) error
}

package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainsurvey "surveybridge/internal/domain/survey"
	"surveybridge/internal/infrastructure/persistence/sql/model"
	"surveybridge/internal/ports"
)

func setupPartnerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "partners.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&model.SupplyPartner{}, &model.RateEntry{}, &model.CatalogQuestion{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func samplePartner() ports.SupplyPartner {
	return ports.SupplyPartner{
		PartnerID:    7,
		AccountName:  "Acme Panel",
		APIKey:       "acme-key",
		UsesRateCard: true,
		RateCardID:   "standard",
		HashingKey:   "secret",
		CompleteURL:  "https://panel.example/c?session=[%SessionID%]",
		TerminateURL: "https://panel.example/t?session=[%SessionID%]",
		OverQuotaURL: "https://panel.example/oq?session=[%SessionID%]",
		QualityURL:   "https://panel.example/q?session=[%SessionID%]",
	}
}

func TestPartnerRepositoryUpsertAndFind(t *testing.T) {
	t.Parallel()

	repo := NewPartnerRepository(setupPartnerDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, samplePartner()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	byKey, err := repo.FindByAPIKey(ctx, "acme-key")
	if err != nil {
		t.Fatalf("FindByAPIKey() error = %v", err)
	}
	if byKey.PartnerID != 7 || byKey.AccountName != "Acme Panel" || !byKey.UsesRateCard {
		t.Fatalf("unexpected partner: %+v", byKey)
	}

	byID, err := repo.FindByID(ctx, 7)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if byID.HashingKey != "secret" || byID.CompleteURL != byKey.CompleteURL {
		t.Fatalf("unexpected partner by id: %+v", byID)
	}
}

func TestPartnerRepositoryNotFound(t *testing.T) {
	t.Parallel()

	repo := NewPartnerRepository(setupPartnerDB(t))
	ctx := context.Background()

	if _, err := repo.FindByAPIKey(ctx, "no-such-key"); !errors.Is(err, ports.ErrPartnerNotFound) {
		t.Fatalf("FindByAPIKey() error = %v, want ErrPartnerNotFound", err)
	}
	if _, err := repo.FindByID(ctx, 404); !errors.Is(err, ports.ErrPartnerNotFound) {
		t.Fatalf("FindByID() error = %v, want ErrPartnerNotFound", err)
	}
}

func TestPartnerRepositoryBlankAPIKey(t *testing.T) {
	t.Parallel()

	repo := NewPartnerRepository(setupPartnerDB(t))

	if _, err := repo.FindByAPIKey(context.Background(), "   "); !errors.Is(err, ports.ErrPartnerNotFound) {
		t.Fatalf("blank key error = %v, want ErrPartnerNotFound", err)
	}
}

func TestPartnerRepositoryUpsertOverwrites(t *testing.T) {
	t.Parallel()

	repo := NewPartnerRepository(setupPartnerDB(t))
	ctx := context.Background()

	partner := samplePartner()
	if err := repo.Upsert(ctx, partner); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	partner.AccountName = "Acme Panel EU"
	partner.APIKey = "acme-key-2"
	partner.UsesRateCard = false
	if err := repo.Upsert(ctx, partner); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.FindByID(ctx, partner.PartnerID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.AccountName != "Acme Panel EU" || got.APIKey != "acme-key-2" || got.UsesRateCard {
		t.Fatalf("overwrite not applied: %+v", got)
	}
	if _, err := repo.FindByAPIKey(ctx, "acme-key"); !errors.Is(err, ports.ErrPartnerNotFound) {
		t.Fatalf("stale api key still resolves: %v", err)
	}
}

func TestRateCardRepositoryUpsertAndList(t *testing.T) {
	t.Parallel()

	repo := NewRateCardRepository(setupPartnerDB(t))
	ctx := context.Background()

	card := domainsurvey.RateCard{
		RateCardID: "standard",
		Entries: []domainsurvey.RateEntry{
			{RateCardID: "standard", IRMin: 50, IRMax: 100, LOIMin: 0, LOIMax: 10, Rate: 2.5},
			{RateCardID: "standard", IRMin: 0, IRMax: 49, LOIMin: 0, LOIMax: 10, Rate: 4.0},
		},
	}
	if err := repo.UpsertCard(ctx, card); err != nil {
		t.Fatalf("UpsertCard() error = %v", err)
	}

	entries, err := repo.ListEntries(ctx, "standard")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Ordered by ir_min ascending.
	if entries[0].IRMin != 0 || entries[1].IRMin != 50 {
		t.Fatalf("unexpected order: %+v", entries)
	}

	// Re-upserting replaces the whole card rather than appending.
	card.Entries = card.Entries[:1]
	if err := repo.UpsertCard(ctx, card); err != nil {
		t.Fatalf("replace card: %v", err)
	}
	entries, err = repo.ListEntries(ctx, "standard")
	if err != nil {
		t.Fatalf("ListEntries() after replace error = %v", err)
	}
	if len(entries) != 1 || entries[0].Rate != 2.5 {
		t.Fatalf("replacement not applied: %+v", entries)
	}

	if err := repo.UpsertCard(ctx, domainsurvey.RateCard{RateCardID: " "}); err == nil {
		t.Fatal("blank rate card id must be rejected")
	}
}

func TestRateCardRepositoryListUnknownCard(t *testing.T) {
	t.Parallel()

	repo := NewRateCardRepository(setupPartnerDB(t))

	entries, err := repo.ListEntries(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0", len(entries))
	}
}

func TestQualificationCatalogUpsertAndFind(t *testing.T) {
	t.Parallel()

	catalog := NewQualificationCatalog(setupPartnerDB(t))
	ctx := context.Background()

	question := ports.CatalogQuestion{
		QuestionID:  42,
		Name:        "AGE_US",
		Question:    "What is your age?",
		PartnerCode: "age",
	}
	if err := catalog.UpsertQuestion(ctx, question); err != nil {
		t.Fatalf("UpsertQuestion() error = %v", err)
	}

	got, err := catalog.FindQuestion(ctx, 42)
	if err != nil {
		t.Fatalf("FindQuestion() error = %v", err)
	}
	if got.Name != "AGE_US" || got.Question != "What is your age?" {
		t.Fatalf("unexpected question: %+v", got)
	}

	question.Question = "How old are you?"
	if err := catalog.UpsertQuestion(ctx, question); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = catalog.FindQuestion(ctx, 42)
	if err != nil {
		t.Fatalf("FindQuestion() after upsert error = %v", err)
	}
	if got.Question != "How old are you?" {
		t.Fatalf("overwrite not applied: %+v", got)
	}

	if _, err := catalog.FindQuestion(ctx, 99); !errors.Is(err, ports.ErrQuestionNotFound) {
		t.Fatalf("FindQuestion(99) error = %v, want ErrQuestionNotFound", err)
	}
}

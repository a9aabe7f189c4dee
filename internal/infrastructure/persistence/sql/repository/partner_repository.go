package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainsurvey "surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/infrastructure/persistence/sql/model"
	"surveybridge/internal/ports"
)

type PartnerRepository struct {
	db *gorm.DB
}

var _ ports.PartnerRepository = (*PartnerRepository)(nil)

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

func (r *PartnerRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *PartnerRepository) FindByAPIKey(ctx context.Context, apiKey string) (ports.SupplyPartner, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SupplyPartner{}, err
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		return ports.SupplyPartner{}, ports.ErrPartnerNotFound
	}

	var row model.SupplyPartner
	if err := db.Where("api_key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SupplyPartner{}, ports.ErrPartnerNotFound
		}
		return ports.SupplyPartner{}, errs.Wrap(err, "query partner by api key")
	}

	return mapPartner(row), nil
}

func (r *PartnerRepository) FindByID(ctx context.Context, partnerID int64) (ports.SupplyPartner, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SupplyPartner{}, err
	}

	var row model.SupplyPartner
	if err := db.Where("partner_id = ?", partnerID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SupplyPartner{}, ports.ErrPartnerNotFound
		}
		return ports.SupplyPartner{}, errs.Wrap(err, "query partner by id")
	}

	return mapPartner(row), nil
}

func (r *PartnerRepository) Upsert(ctx context.Context, partner ports.SupplyPartner) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.SupplyPartner{
		PartnerID:    partner.PartnerID,
		AccountName:  partner.AccountName,
		APIKey:       partner.APIKey,
		UsesRateCard: partner.UsesRateCard,
		RateCardID:   partner.RateCardID,
		HashingKey:   partner.HashingKey,
		CompleteURL:  partner.CompleteURL,
		TerminateURL: partner.TerminateURL,
		OverQuotaURL: partner.OverQuotaURL,
		QualityURL:   partner.QualityURL,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partner_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return classifyWriteError(err, "upsert supply partner")
	}
	return nil
}

func mapPartner(row model.SupplyPartner) ports.SupplyPartner {
	return ports.SupplyPartner{
		PartnerID:    row.PartnerID,
		AccountName:  row.AccountName,
		APIKey:       row.APIKey,
		UsesRateCard: row.UsesRateCard,
		RateCardID:   row.RateCardID,
		HashingKey:   row.HashingKey,
		CompleteURL:  row.CompleteURL,
		TerminateURL: row.TerminateURL,
		OverQuotaURL: row.OverQuotaURL,
		QualityURL:   row.QualityURL,
	}
}

type RateCardRepository struct {
	db *gorm.DB
}

var _ ports.RateCardRepository = (*RateCardRepository)(nil)

func NewRateCardRepository(db *gorm.DB) *RateCardRepository {
	return &RateCardRepository{db: db}
}

func (r *RateCardRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *RateCardRepository) ListEntries(ctx context.Context, rateCardID string) ([]domainsurvey.RateEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.RateEntry
	if err := db.
		Where("rate_card_id = ?", rateCardID).
		Order("ir_min asc, loi_min asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query rate entries")
	}

	entries := make([]domainsurvey.RateEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domainsurvey.RateEntry{
			RateCardID: row.RateCardID,
			IRMin:      row.IRMin,
			IRMax:      row.IRMax,
			LOIMin:     row.LOIMin,
			LOIMax:     row.LOIMax,
			Rate:       row.Rate,
		})
	}
	return entries, nil
}

// UpsertCard replaces the whole tariff table for one rate card id. Cards
// are small enough that full replacement keeps seeding and hot reload
// trivially idempotent.
func (r *RateCardRepository) UpsertCard(ctx context.Context, card domainsurvey.RateCard) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(card.RateCardID) == "" {
		return errors.New("rate card id is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rate_card_id = ?", card.RateCardID).Delete(&model.RateEntry{}).Error; err != nil {
			return classifyWriteError(err, "delete rate entries")
		}
		if len(card.Entries) == 0 {
			return nil
		}

		rows := make([]model.RateEntry, 0, len(card.Entries))
		for _, entry := range card.Entries {
			rows = append(rows, model.RateEntry{
				RateCardID: card.RateCardID,
				IRMin:      entry.IRMin,
				IRMax:      entry.IRMax,
				LOIMin:     entry.LOIMin,
				LOIMax:     entry.LOIMax,
				Rate:       entry.Rate,
			})
		}
		return classifyWriteError(tx.Create(&rows).Error, "insert rate entries")
	})
}

type QualificationCatalog struct {
	db *gorm.DB
}

var _ ports.QualificationCatalog = (*QualificationCatalog)(nil)

func NewQualificationCatalog(db *gorm.DB) *QualificationCatalog {
	return &QualificationCatalog{db: db}
}

func (r *QualificationCatalog) FindQuestion(ctx context.Context, questionID int64) (ports.CatalogQuestion, error) {
	if ctx == nil {
		return ports.CatalogQuestion{}, errors.New("context is required")
	}

	var row model.CatalogQuestion
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CatalogQuestion{}, ports.ErrQuestionNotFound
		}
		return ports.CatalogQuestion{}, errs.Wrap(err, "query catalog question")
	}

	return ports.CatalogQuestion{
		QuestionID:  row.QuestionID,
		Name:        row.Name,
		Question:    row.Question,
		PartnerCode: row.PartnerCode,
	}, nil
}

func (r *QualificationCatalog) UpsertQuestion(ctx context.Context, question ports.CatalogQuestion) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	row := model.CatalogQuestion{
		QuestionID:  question.QuestionID,
		Name:        question.Name,
		Question:    question.Question,
		PartnerCode: question.PartnerCode,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return classifyWriteError(err, "upsert catalog question")
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domainsurvey "surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/infrastructure/persistence/sql/model"
	"surveybridge/internal/ports"
)

type SurveyRepository struct {
	db *gorm.DB
}

var _ ports.SurveyRepository = (*SurveyRepository)(nil)

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *SurveyRepository) FindSurvey(ctx context.Context, surveyID domainsurvey.ID) (domainsurvey.Survey, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return domainsurvey.Survey{}, err
	}

	var row model.Survey
	if err := db.Where("survey_id = ?", surveyID.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainsurvey.Survey{}, ports.ErrSurveyNotFound
		}
		return domainsurvey.Survey{}, errs.Wrap(err, "query survey by id")
	}

	return mapSurvey(row), nil
}

func (r *SurveyRepository) ListLiveSurveys(ctx context.Context, filter ports.SurveyFilter) ([]domainsurvey.Survey, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Survey{})
	if filter.LiveOnly {
		query = query.
			Where("is_live = ?", true).
			Where("message_reason <> ?", domainsurvey.ReasonDeactivated).
			Where("livelink <> ''").
			Where("livelink <> ?", domainsurvey.LiveLinkUnavailable)
	}
	if filter.LOI != nil {
		query = query.Where("bid_length_of_interview = ?", *filter.LOI)
	}
	if filter.IR != nil {
		query = query.Where("bid_incidence = ?", *filter.IR)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.CountryLanguage != "" {
		query = query.Where("country_language = ?", filter.CountryLanguage)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Survey
	if err := query.Order("survey_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query live surveys")
	}

	items := make([]domainsurvey.Survey, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSurvey(row))
	}
	return items, nil
}

func (r *SurveyRepository) CreateSurvey(ctx context.Context, s domainsurvey.Survey) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := surveyRow(s)
	if err != nil {
		return err
	}

	return classifyWriteError(db.Create(&row).Error, "insert survey")
}

// UpdateSurvey overwrites the allow-listed mutable fields only. Link
// fields, message_reason and created_at stay as stored: an updated event
// must never undo a deactivation, only SetStatus moves the reason.
func (r *SurveyRepository) UpdateSurvey(ctx context.Context, s domainsurvey.Survey) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	groupIDs, err := json.Marshal(s.GroupIDs)
	if err != nil {
		return errs.Wrap(err, "encode group ids")
	}

	result := db.Model(&model.Survey{}).
		Where("survey_id = ?", s.SurveyID.String()).
		Updates(map[string]any{
			"survey_name":             s.Name,
			"account_name":            s.AccountName,
			"country_language":        s.CountryLanguage,
			"country":                 s.Country,
			"industry":                s.Industry,
			"study_type":              s.StudyType,
			"bid_length_of_interview": s.BidLengthOfInterview,
			"bid_incidence":           s.BidIncidence,
			"collects_pii":            s.CollectsPII,
			"group_ids_json":          string(groupIDs),
			"is_live":                 s.IsLive,
			"quota_calc_type":         s.QuotaCalcType,
			"revenue_value":           s.RevenuePerInterview.Value,
			"revenue_currency":        s.RevenuePerInterview.Currency,
		})
	if result.Error != nil {
		return classifyWriteError(result.Error, "update survey")
	}
	if result.RowsAffected == 0 {
		return ports.ErrSurveyNotFound
	}
	return nil
}

func (r *SurveyRepository) SetStatus(ctx context.Context, surveyID domainsurvey.ID, messageReason string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Survey{}).
		Where("survey_id = ?", surveyID.String()).
		Update("message_reason", messageReason)
	if result.Error != nil {
		return classifyWriteError(result.Error, "update survey status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrSurveyNotFound
	}
	return nil
}

// ReplaceQuotas destroys and recreates the quota set for one survey.
// Callers run it inside the unit of work together with the survey write.
func (r *SurveyRepository) ReplaceQuotas(ctx context.Context, surveyID domainsurvey.ID, quotas []domainsurvey.Quota) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("survey_id = ?", surveyID.String()).Delete(&model.Quota{}).Error; err != nil {
		return classifyWriteError(err, "delete survey quotas")
	}
	if len(quotas) == 0 {
		return nil
	}

	rows := make([]model.Quota, 0, len(quotas))
	for _, quota := range quotas {
		rows = append(rows, model.Quota{
			SurveyID:    surveyID.String(),
			QuotaID:     quota.QuotaID,
			Name:        quota.Name,
			TargetCount: quota.TargetCount,
			QuotaCPI:    quota.QuotaCPI,
		})
	}
	return classifyWriteError(db.Create(&rows).Error, "insert survey quotas")
}

func (r *SurveyRepository) ReplaceQualifications(ctx context.Context, surveyID domainsurvey.ID, qualifications []domainsurvey.Qualification) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("survey_id = ?", surveyID.String()).Delete(&model.Qualification{}).Error; err != nil {
		return classifyWriteError(err, "delete survey qualifications")
	}
	if len(qualifications) == 0 {
		return nil
	}

	rows := make([]model.Qualification, 0, len(qualifications))
	for _, qualification := range qualifications {
		precodes, err := json.Marshal(qualification.Precodes)
		if err != nil {
			return errs.Wrap(err, "encode precodes")
		}
		rows = append(rows, model.Qualification{
			SurveyID:        surveyID.String(),
			QuestionID:      qualification.QuestionID,
			LogicalOperator: qualification.LogicalOperator,
			PrecodesJSON:    string(precodes),
		})
	}
	return classifyWriteError(db.Create(&rows).Error, "insert survey qualifications")
}

func (r *SurveyRepository) ListQuotas(ctx context.Context, surveyID domainsurvey.ID) ([]domainsurvey.Quota, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Quota
	if err := db.Where("survey_id = ?", surveyID.String()).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query survey quotas")
	}

	items := make([]domainsurvey.Quota, 0, len(rows))
	for _, row := range rows {
		items = append(items, domainsurvey.Quota{
			QuotaID:     row.QuotaID,
			SurveyID:    domainsurvey.ID(row.SurveyID),
			Name:        row.Name,
			TargetCount: row.TargetCount,
			QuotaCPI:    row.QuotaCPI,
		})
	}
	return items, nil
}

func (r *SurveyRepository) ListQualifications(ctx context.Context, surveyID domainsurvey.ID) ([]domainsurvey.Qualification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Qualification
	if err := db.Where("survey_id = ?", surveyID.String()).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query survey qualifications")
	}

	items := make([]domainsurvey.Qualification, 0, len(rows))
	for _, row := range rows {
		var precodes []string
		if row.PrecodesJSON != "" {
			if err := json.Unmarshal([]byte(row.PrecodesJSON), &precodes); err != nil {
				return nil, errs.Wrapf(err, "decode precodes for question %d", row.QuestionID)
			}
		}
		items = append(items, domainsurvey.Qualification{
			SurveyID:        domainsurvey.ID(row.SurveyID),
			QuestionID:      row.QuestionID,
			LogicalOperator: row.LogicalOperator,
			Precodes:        precodes,
		})
	}
	return items, nil
}

func surveyRow(s domainsurvey.Survey) (model.Survey, error) {
	groupIDs, err := json.Marshal(s.GroupIDs)
	if err != nil {
		return model.Survey{}, errs.Wrap(err, "encode group ids")
	}

	return model.Survey{
		SurveyID:             s.SurveyID.String(),
		Name:                 s.Name,
		AccountName:          s.AccountName,
		CountryLanguage:      s.CountryLanguage,
		Country:              s.Country,
		Industry:             s.Industry,
		StudyType:            s.StudyType,
		BidLengthOfInterview: s.BidLengthOfInterview,
		BidIncidence:         s.BidIncidence,
		CollectsPII:          s.CollectsPII,
		GroupIDsJSON:         string(groupIDs),
		IsLive:               s.IsLive,
		QuotaCalcType:        s.QuotaCalcType,
		RevenueValue:         s.RevenuePerInterview.Value,
		RevenueCurrency:      s.RevenuePerInterview.Currency,
		LiveLink:             s.LiveLink,
		TestLink:             s.TestLink,
		MessageReason:        s.MessageReason,
	}, nil
}

func mapSurvey(row model.Survey) domainsurvey.Survey {
	var groupIDs []int64
	if row.GroupIDsJSON != "" {
		// Tolerate legacy rows with malformed group id payloads.
		_ = json.Unmarshal([]byte(row.GroupIDsJSON), &groupIDs)
	}

	return domainsurvey.Survey{
		SurveyID:             domainsurvey.ID(row.SurveyID),
		Name:                 row.Name,
		AccountName:          row.AccountName,
		CountryLanguage:      row.CountryLanguage,
		Country:              row.Country,
		Industry:             row.Industry,
		StudyType:            row.StudyType,
		BidLengthOfInterview: row.BidLengthOfInterview,
		BidIncidence:         row.BidIncidence,
		CollectsPII:          row.CollectsPII,
		GroupIDs:             groupIDs,
		IsLive:               row.IsLive,
		QuotaCalcType:        row.QuotaCalcType,
		RevenuePerInterview: domainsurvey.Revenue{
			Value:    row.RevenueValue,
			Currency: row.RevenueCurrency,
		},
		LiveLink:      row.LiveLink,
		TestLink:      row.TestLink,
		MessageReason: row.MessageReason,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

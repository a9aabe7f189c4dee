package model

import "time"

type Survey struct {
	SurveyID             string    `gorm:"column:survey_id;primaryKey"`
	Name                 string    `gorm:"column:survey_name;type:text;not null"`
	AccountName          string    `gorm:"column:account_name;type:text;not null"`
	CountryLanguage      string    `gorm:"column:country_language;type:text;not null;index"`
	Country              string    `gorm:"column:country;type:text;not null;index"`
	Industry             string    `gorm:"column:industry;type:text;not null"`
	StudyType            string    `gorm:"column:study_type;type:text;not null"`
	BidLengthOfInterview int       `gorm:"column:bid_length_of_interview;not null"`
	BidIncidence         float64   `gorm:"column:bid_incidence;not null"`
	CollectsPII          bool      `gorm:"column:collects_pii;not null;default:0"`
	GroupIDsJSON         string    `gorm:"column:group_ids_json;type:text;not null;default:'[]'"`
	IsLive               bool      `gorm:"column:is_live;not null;default:0;index"`
	QuotaCalcType        string    `gorm:"column:quota_calc_type;type:text;not null"`
	RevenueValue         float64   `gorm:"column:revenue_value;not null"`
	RevenueCurrency      string    `gorm:"column:revenue_currency;type:text;not null;default:''"`
	LiveLink             string    `gorm:"column:livelink;type:text;not null;default:''"`
	TestLink             string    `gorm:"column:testlink;type:text;not null;default:''"`
	MessageReason        string    `gorm:"column:message_reason;type:text;not null;index"`
	CreatedAt            time.Time `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null"`
}

func (Survey) TableName() string {
	return "research_surveys"
}

package model

type Quota struct {
	ID          uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	SurveyID    string  `gorm:"column:survey_id;not null;index"`
	QuotaID     string  `gorm:"column:quota_id;type:text;not null"`
	Name        string  `gorm:"column:name;type:text;not null"`
	TargetCount int     `gorm:"column:target_count;not null"`
	QuotaCPI    float64 `gorm:"column:quota_cpi;not null"`
}

func (Quota) TableName() string {
	return "research_survey_quotas"
}

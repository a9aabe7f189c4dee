package model

type Qualification struct {
	ID              uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	SurveyID        string `gorm:"column:survey_id;not null;index"`
	QuestionID      int64  `gorm:"column:question_id;not null"`
	LogicalOperator string `gorm:"column:logical_operator;type:text;not null"`
	PrecodesJSON    string `gorm:"column:precodes_json;type:text;not null;default:'[]'"`
}

func (Qualification) TableName() string {
	return "research_survey_qualifications"
}

package model

type CatalogQuestion struct {
	QuestionID  int64  `gorm:"column:question_id;primaryKey"`
	Name        string `gorm:"column:name;type:text;not null"`
	Question    string `gorm:"column:question;type:text;not null"`
	PartnerCode string `gorm:"column:partner_code;type:text;not null;default:''"`
}

func (CatalogQuestion) TableName() string {
	return "qualification_catalog"
}

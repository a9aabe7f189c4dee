package model

import "time"

type SupplyPartner struct {
	PartnerID    int64     `gorm:"column:partner_id;primaryKey"`
	AccountName  string    `gorm:"column:account_name;type:text;not null"`
	APIKey       string    `gorm:"column:api_key;type:text;not null;uniqueIndex"`
	UsesRateCard bool      `gorm:"column:uses_rate_card;not null;default:0"`
	RateCardID   string    `gorm:"column:rate_card_id;type:text;not null;default:''"`
	HashingKey   string    `gorm:"column:hashing_key;type:text;not null;default:''"`
	CompleteURL  string    `gorm:"column:complete_url;type:text;not null;default:''"`
	TerminateURL string    `gorm:"column:terminate_url;type:text;not null;default:''"`
	OverQuotaURL string    `gorm:"column:overquota_url;type:text;not null;default:''"`
	QualityURL   string    `gorm:"column:quality_url;type:text;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (SupplyPartner) TableName() string {
	return "supply_partners"
}

package model

type RateEntry struct {
	ID         uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	RateCardID string  `gorm:"column:rate_card_id;not null;index:idx_rate_cell"`
	IRMin      float64 `gorm:"column:ir_min;not null;index:idx_rate_cell"`
	IRMax      float64 `gorm:"column:ir_max;not null"`
	LOIMin     int     `gorm:"column:loi_min;not null;index:idx_rate_cell"`
	LOIMax     int     `gorm:"column:loi_max;not null"`
	Rate       float64 `gorm:"column:rate;not null"`
}

func (RateEntry) TableName() string {
	return "supply_rate_entries"
}

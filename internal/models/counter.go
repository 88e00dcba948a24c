package models

// Counter backs the per-(client, month) document numbering sequence.
// One row per key; the value only ever increases.
type Counter struct {
	ID          uint   `gorm:"primaryKey"`
	ClientToken string `gorm:"not null;uniqueIndex:idx_counter_key"`
	Period      string `gorm:"not null;uniqueIndex:idx_counter_key"` // MMYYYY
	Counter     int    `gorm:"not null;default:0"`
}

func (Counter) TableName() string { return "numbering_counters" }

package models

import "time"

// Client entity
type Client struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"` // Raison sociale ou nom
	SIRET     string `gorm:"index"`          // identifiant fiscal, optionnel
	Address   string
	Email     string
	Phone     string
	CreatedAt time.Time
}

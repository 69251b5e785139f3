package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a rental listing published by a landlord or agent.
type Property struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OwnerID     uint            `gorm:"not null;index" json:"owner_id"`
	Owner       *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title       string          `gorm:"size:160;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Address     string          `gorm:"size:255;not null" json:"address"`
	City        string          `gorm:"size:80;not null;index" json:"city"`
	Bedrooms    int             `gorm:"not null;default:1" json:"bedrooms"`
	MonthlyRent decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"monthly_rent"`
	// Deposit is the amount charged through the payment collaborator when a
	// tenant pays on an accepted application.
	Deposit   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"deposit"`
	Published bool            `gorm:"not null;default:true;index" json:"published"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

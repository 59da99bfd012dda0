package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Donation is the detail row of a donation transaction. Never mutated.
type Donation struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID       `json:"transactionId" gorm:"type:uuid;not null;uniqueIndex"`
	Transaction   *Transaction    `json:"-" gorm:"foreignKey:TransactionID"`
	DonationType  string          `json:"donationType" gorm:"size:64;not null"` // family_counseling, family_support, complete_program, custom
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	IsAnonymous   bool            `json:"isAnonymous"`
	Message       *string         `json:"message,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (Donation) TableName() string {
	return "donations"
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

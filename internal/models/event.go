package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event is a fee-bearing gathering people can register for
type Event struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string          `json:"name" gorm:"not null"`
	Description       *string         `json:"description,omitempty" gorm:"type:text"`
	Date              time.Time       `json:"date" gorm:"not null;index"`
	EndTime           *time.Time      `json:"endTime,omitempty"`
	Location          string          `json:"location" gorm:"not null"`
	MaxParticipants   *int            `json:"maxParticipants,omitempty"`
	RegistrationCount int             `json:"registrationCount" gorm:"not null;default:0"` // seats taken, incremented atomically
	RegistrationFee   decimal.Decimal `json:"registrationFee" gorm:"type:decimal(10,2);not null"`
	IsActive          bool            `json:"isActive" gorm:"not null;index"`
	ImageURL          *string         `json:"imageUrl,omitempty"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsFull reports whether the capacity ceiling has been reached.
// Events without a ceiling are never full.
func (e *Event) IsFull() bool {
	return e.MaxParticipants != nil && e.RegistrationCount >= *e.MaxParticipants
}

// RegistrationType is who is registering
type RegistrationType string

const (
	RegistrationIndividual   RegistrationType = "individual"
	RegistrationOrganization RegistrationType = "organization"
)

// Valid reports whether t is a known registration type
func (t RegistrationType) Valid() bool {
	return t == RegistrationIndividual || t == RegistrationOrganization
}

// EventRegistration is the detail row of an event registration transaction
type EventRegistration struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	EventID          uuid.UUID        `json:"eventId" gorm:"type:uuid;not null;index"`
	Event            *Event           `json:"-" gorm:"foreignKey:EventID"`
	TransactionID    uuid.UUID        `json:"transactionId" gorm:"type:uuid;not null;uniqueIndex"`
	Transaction      *Transaction     `json:"-" gorm:"foreignKey:TransactionID"`
	RegistrationType RegistrationType `json:"registrationType" gorm:"size:20;not null"`
	FirstName        string           `json:"firstName" gorm:"not null"`
	MiddleName       *string          `json:"middleName,omitempty"`
	LastName         string           `json:"lastName" gorm:"not null"`
	Email            string           `json:"email" gorm:"not null"`
	Phone            string           `json:"phone" gorm:"not null"`
	OrganizationName *string          `json:"organizationName,omitempty"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"autoCreateTime"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}

func (r *EventRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

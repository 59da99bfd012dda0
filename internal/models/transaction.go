package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCurrency is used for every order submitted to the gateway
const DefaultCurrency = "KES"

// TransactionType distinguishes what a payment is for
type TransactionType string

const (
	TransactionTypeDonation          TransactionType = "donation"
	TransactionTypeEventRegistration TransactionType = "event_registration"
)

// TransactionStatus is the persisted payment state
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

var (
	// ErrInvalidTransition is returned when a settled transaction would move to a different status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusUnchanged is returned when a settled transaction receives its own status again
	ErrStatusUnchanged = errors.New("status already settled")
)

// Valid reports whether s is one of the known statuses
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CheckTransition validates a status change.
// Only PENDING may move; PENDING -> PENDING is allowed as a payload refresh.
func CheckTransition(from, to TransactionStatus) error {
	if !to.Valid() {
		return ErrInvalidTransition
	}
	if !from.IsTerminal() {
		return nil
	}
	if from == to {
		return ErrStatusUnchanged
	}
	return ErrInvalidTransition
}

// Phase is the derived lifecycle position of a transaction
type Phase string

const (
	PhaseCreated   Phase = "created"
	PhaseSubmitted Phase = "submitted"
	PhaseSettled   Phase = "settled"
)

// Transaction is the aggregate root for payment state
type Transaction struct {
	ID                       uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	PesapalTransactionID     *string           `json:"pesapalTransactionId,omitempty" gorm:"size:100;index"`
	PesapalMerchantReference string            `json:"pesapalMerchantReference" gorm:"size:64;not null;uniqueIndex"`
	Type                     TransactionType   `json:"type" gorm:"size:32;not null;index"`
	Amount                   decimal.Decimal   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency                 string            `json:"currency" gorm:"size:3;not null;default:'KES'"`
	Status                   TransactionStatus `json:"status" gorm:"size:20;not null;default:'PENDING';index"`
	PaymentMethod            *string           `json:"paymentMethod,omitempty" gorm:"size:64"`
	CustomerName             string            `json:"customerName" gorm:"not null"`
	CustomerEmail            string            `json:"customerEmail" gorm:"not null"`
	CustomerPhone            *string           `json:"customerPhone,omitempty"`
	Description              *string           `json:"description,omitempty"`
	PesapalRedirectURL       *string           `json:"pesapalRedirectUrl,omitempty" gorm:"type:text"`
	IPNData                  datatypes.JSON    `json:"-" gorm:"column:ipn_data"`
	CreatedAt                time.Time         `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt                time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName sets the table name
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate assigns the identifier and defaults
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}

// Phase derives where the transaction is in its lifecycle
func (t *Transaction) Phase() Phase {
	if t.Status.IsTerminal() {
		return PhaseSettled
	}
	if t.PesapalTransactionID != nil && *t.PesapalTransactionID != "" {
		return PhaseSubmitted
	}
	return PhaseCreated
}

// DescriptionOr returns the description or a fallback
func (t *Transaction) DescriptionOr(fallback string) string {
	if t.Description == nil || *t.Description == "" {
		return fallback
	}
	return *t.Description
}

package database

import (
	"context"
	"fmt"
	"time"

	"donation-portal/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusUpdate describes a guarded status change
type StatusUpdate struct {
	Status        models.TransactionStatus
	PaymentMethod *string
	TrackingID    string // only fills an empty tracking id
	Payload       []byte // raw gateway status response, stored for audit
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Status models.TransactionStatus
	Limit  int
	Offset int
}

// CreateDonation writes the transaction and its donation row atomically
func (s *Store) CreateDonation(ctx context.Context, transaction *models.Transaction, donation *models.Donation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		donation.TransactionID = transaction.ID
		if err := tx.Create(donation).Error; err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		return nil
	})
}

// CreateEventRegistration takes a seat, then writes the transaction and registration rows.
// The seat is taken with a conditional increment so concurrent registrations cannot overbook;
// ErrEventFull is returned and nothing is written when no seat is left.
func (s *Store) CreateEventRegistration(ctx context.Context, transaction *models.Transaction, registration *models.EventRegistration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Event{}).
			Where("id = ? AND (max_participants IS NULL OR registration_count < max_participants)", registration.EventID).
			Update("registration_count", gorm.Expr("registration_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve seat: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrEventFull
		}

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		registration.TransactionID = transaction.ID
		if err := tx.Create(registration).Error; err != nil {
			return fmt.Errorf("failed to create event registration: %w", err)
		}
		return nil
	})
}

// GetTransaction gets a transaction by id
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetTransactionByMerchantReference gets a transaction by its merchant reference
func (s *Store) GetTransactionByMerchantReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Where("pesapal_merchant_reference = ?", reference).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// SetTrackingID records the gateway tracking id and hosted payment page
func (s *Store) SetTrackingID(ctx context.Context, id uuid.UUID, trackingID, redirectURL string) error {
	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pesapal_transaction_id": trackingID,
			"pesapal_redirect_url":   redirectURL,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tracking id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus applies an update only while the transaction is still PENDING.
// It reports whether a row was changed; false means the transaction was already settled.
func (s *Store) TransitionStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":     update.Status,
		"updated_at": time.Now(),
	}
	if update.PaymentMethod != nil {
		updates["payment_method"] = *update.PaymentMethod
	}
	if update.TrackingID != "" {
		updates["pesapal_transaction_id"] = gorm.Expr("COALESCE(pesapal_transaction_id, ?)", update.TrackingID)
	}
	if len(update.Payload) > 0 {
		updates["ipn_data"] = datatypes.JSON(update.Payload)
	}

	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListTransactions lists transactions newest first
func (s *Store) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// ListTransactionsBetween lists transactions created in [from, to]
func (s *Store) ListTransactionsBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by date: %w", err)
	}
	return transactions, nil
}

// CountTransactionsByStatus counts transactions in a status
func (s *Store) CountTransactionsByStatus(ctx context.Context, status models.TransactionStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// DonationTotals sums donations whose payment completed
func (s *Store) DonationTotals(ctx context.Context) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := s.db.WithContext(ctx).
		Table("donations").
		Select("COALESCE(SUM(donations.amount), 0) AS total, COUNT(*) AS count").
		Joins("JOIN transactions ON transactions.id = donations.transaction_id").
		Where("transactions.status = ?", models.StatusCompleted).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum donations: %w", err)
	}
	return row.Total, row.Count, nil
}

// GetDonationByTransaction gets the donation detail row of a transaction
func (s *Store) GetDonationByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

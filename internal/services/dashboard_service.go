package services

import (
	"context"
	"fmt"
	"time"

	"donation-portal/internal/database"
	"donation-portal/internal/models"

	"github.com/shopspring/decimal"
)

const (
	dashboardWindow      = 30 * 24 * time.Hour
	recentTransactionMax = 10

	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200
)

// MonthlyStats counts transactions in the trailing window
type MonthlyStats struct {
	TotalTransactions     int `json:"totalTransactions"`
	CompletedTransactions int `json:"completedTransactions"`
	FailedTransactions    int `json:"failedTransactions"`
}

// WindowSummary is the aggregate over the trailing window
type WindowSummary struct {
	SuccessRate    string         `json:"successRate"`
	PaymentMethods map[string]int `json:"paymentMethods"`
	MonthlyStats   MonthlyStats   `json:"monthlyStats"`
}

// Total is a money amount that encodes as a JSON number
type Total struct {
	decimal.Decimal
}

func (t Total) MarshalJSON() ([]byte, error) {
	return []byte(t.Decimal.String()), nil
}

// Dashboard is the admin overview
type Dashboard struct {
	TotalDonations     Total                `json:"totalDonations"`
	DonationCount      int64                `json:"donationCount"`
	PendingPayments    int64                `json:"pendingPayments"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
	WindowSummary
}

// Summarize aggregates the transactions of a window
func Summarize(transactions []models.Transaction) WindowSummary {
	summary := WindowSummary{
		SuccessRate:    "0.0",
		PaymentMethods: make(map[string]int),
	}

	for _, tx := range transactions {
		summary.MonthlyStats.TotalTransactions++
		switch tx.Status {
		case models.StatusCompleted:
			summary.MonthlyStats.CompletedTransactions++
		case models.StatusFailed:
			summary.MonthlyStats.FailedTransactions++
		}

		method := "Unknown"
		if tx.PaymentMethod != nil && *tx.PaymentMethod != "" {
			method = *tx.PaymentMethod
		}
		summary.PaymentMethods[method]++
	}

	if total := summary.MonthlyStats.TotalTransactions; total > 0 {
		rate := float64(summary.MonthlyStats.CompletedTransactions) / float64(total) * 100
		summary.SuccessRate = fmt.Sprintf("%.1f", rate)
	}
	return summary
}

// DashboardService provides admin reporting
type DashboardService struct {
	store *database.Store
}

// NewDashboardService creates a dashboard service
func NewDashboardService(store *database.Store) *DashboardService {
	return &DashboardService{store: store}
}

// GetDashboard builds the admin overview as of now
func (s *DashboardService) GetDashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	total, count, err := s.store.DonationTotals(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.CountTransactionsByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListTransactions(ctx, database.TransactionFilter{Limit: recentTransactionMax})
	if err != nil {
		return nil, err
	}

	window, err := s.store.ListTransactionsBetween(ctx, now.Add(-dashboardWindow), now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalDonations:     Total{total},
		DonationCount:      count,
		PendingPayments:    pending,
		RecentTransactions: recent,
		WindowSummary:      Summarize(window),
	}, nil
}

// ListTransactions lists transactions for the admin table.
// An empty status or "all" disables the filter.
func (s *DashboardService) ListTransactions(ctx context.Context, filter database.TransactionFilter) ([]models.Transaction, error) {
	if filter.Status == "all" {
		filter.Status = ""
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "unknown transaction status")
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultTransactionLimit
	}
	if filter.Limit > MaxTransactionLimit {
		filter.Limit = MaxTransactionLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListTransactions(ctx, filter)
}

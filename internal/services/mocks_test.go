package services

import (
	"context"

	"donation-portal/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	args := m.Called(ctx, order)
	resp, _ := args.Get(0).(*OrderResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) GetTransactionStatus(ctx context.Context, trackingID string) (*StatusResponse, error) {
	args := m.Called(ctx, trackingID)
	resp, _ := args.Get(0).(*StatusResponse)
	return resp, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendDonationConfirmation(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockNotifier) SendEventRegistrationConfirmation(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockNotifier) SendPaymentFailedNotification(ctx context.Context, tx *models.Transaction, reason string) error {
	return m.Called(ctx, tx, reason).Error(0)
}

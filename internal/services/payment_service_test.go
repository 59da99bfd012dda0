package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/models"
	"donation-portal/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	service  *PaymentService
	store    *database.Store
	gateway  *mockGateway
	notifier *mockNotifier
	cfg      *config.Config
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	store := testutil.NewTestStore(t)
	cfg := &config.Config{
		BaseDomains: []string{"give.example.org"},
		ServiceName: "Family Peace Foundation",
	}
	gateway := &mockGateway{}
	notifier := &mockNotifier{}

	return &paymentFixture{
		service:  NewPaymentService(store, gateway, notifier, cfg),
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (f *paymentFixture) registerIPN(t *testing.T) {
	t.Helper()
	_, err := f.store.SaveIPNURL(context.Background(), f.cfg.IPNURL(), "ipn-1")
	require.NoError(t, err)
}

func (f *paymentFixture) countTransactions(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.store.DB().Model(&models.Transaction{}).Count(&count).Error)
	return count
}

func donationInput(amount int64) DonationInput {
	return DonationInput{
		DonationType:  "family_support",
		Amount:        decimal.NewFromInt(amount),
		CustomerName:  "Jane Wanjiru Doe",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "+254700000000",
	}
}

func registrationInput() RegistrationInput {
	return RegistrationInput{
		RegistrationType: models.RegistrationIndividual,
		FirstName:        "John",
		LastName:         "Kamau",
		Email:            "john@example.com",
		Phone:            "+254711111111",
	}
}

func TestInitiateDonation_SubmitsOrderAndRecordsTrackingID(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()

	f.gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(o OrderRequest) bool {
		return strings.HasPrefix(o.ID, DonationReferencePrefix) &&
			o.Amount == 50 &&
			o.Currency == "KES" &&
			o.NotificationID == "ipn-1" &&
			o.CallbackURL == "https://give.example.org/payment-success?ref="+o.ID &&
			o.Description == "Family Peace Foundation - family_support" &&
			o.BillingAddress.FirstName == "Jane" &&
			o.BillingAddress.LastName == "Wanjiru Doe" &&
			o.BillingAddress.CountryCode == "KE"
	})).Return(&OrderResponse{OrderTrackingID: "T1", RedirectURL: "https://pay.example/T1"}, nil).Once()

	redirect, err := f.service.InitiateDonation(ctx, donationInput(50))
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/T1", redirect.RedirectURL)
	assert.False(t, redirect.TestMode)
	assert.Len(t, redirect.MerchantReference, len(DonationReferencePrefix)+10)

	tx, err := f.store.GetTransactionByMerchantReference(ctx, redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, redirect.TransactionID, tx.ID)
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, models.PhaseSubmitted, tx.Phase())
	assert.Equal(t, "T1", *tx.PesapalTransactionID)
	assert.Equal(t, "Donation - family_support", tx.DescriptionOr(""))

	donation, err := f.store.GetDonationByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(donation.Amount))

	f.gateway.AssertExpectations(t)
}

func TestDonationFlow_CallbackCompletesOnceAndEmailsOnce(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()

	f.gateway.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&OrderResponse{OrderTrackingID: "T1", RedirectURL: "https://pay.example/T1"}, nil)
	f.gateway.On("GetTransactionStatus", mock.Anything, "T1").Return(&StatusResponse{
		PaymentStatusCode: "1",
		PaymentMethod:     "M-Pesa",
		Raw:               []byte(`{"payment_status_code":"1","payment_method":"M-Pesa"}`),
	}, nil)
	f.notifier.On("SendDonationConfirmation", mock.Anything, mock.AnythingOfType("*models.Transaction")).Return(nil)

	redirect, err := f.service.InitiateDonation(ctx, donationInput(50))
	require.NoError(t, err)

	result, err := f.service.HandleNotification(ctx, "T1", redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
	require.NotNil(t, result.Transaction.PaymentMethod)
	assert.Equal(t, "M-Pesa", *result.Transaction.PaymentMethod)
	assert.JSONEq(t, `{"payment_status_code":"1","payment_method":"M-Pesa"}`, string(result.Transaction.IPNData))

	again, err := f.service.HandleNotification(ctx, "T1", redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, again.Outcome)

	f.notifier.AssertNumberOfCalls(t, "SendDonationConfirmation", 1)
}

func TestInitiateDonation_OfflineModeCompletesLocally(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	redirect, err := f.service.InitiateDonation(ctx, donationInput(100))
	require.NoError(t, err)
	assert.True(t, redirect.TestMode)
	assert.Equal(t, "https://give.example.org/payment-success?ref="+redirect.MerchantReference, redirect.RedirectURL)

	tx, err := f.store.GetTransactionByMerchantReference(ctx, redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tx.Status)

	f.gateway.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything)
}

func TestInitiateDonation_ValidationWritesNothing(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*DonationInput)
		field  string
	}{
		{"zero amount", func(in *DonationInput) { in.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(in *DonationInput) { in.Amount = decimal.NewFromInt(-5) }, "amount"},
		{"bad email", func(in *DonationInput) { in.CustomerEmail = "not-an-email" }, "customerEmail"},
		{"missing name", func(in *DonationInput) { in.CustomerName = "  " }, "customerName"},
		{"missing type", func(in *DonationInput) { in.DonationType = "" }, "donationType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := donationInput(50)
			tt.mutate(&input)

			_, err := f.service.InitiateDonation(ctx, input)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.EqualValues(t, 0, f.countTransactions(t))
}

func TestInitiateDonation_GatewayFailureLeavesPending(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()

	f.gateway.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(nil, &GatewayError{Op: OpSubmitOrder, StatusCode: 500, Message: "upstream down"})

	_, err := f.service.InitiateDonation(ctx, donationInput(50))
	require.ErrorIs(t, err, ErrGatewayOrder)
	assert.ErrorIs(t, err, ErrGateway)

	var transactions []models.Transaction
	require.NoError(t, f.store.DB().Find(&transactions).Error)
	require.Len(t, transactions, 1)
	assert.Equal(t, models.StatusPending, transactions[0].Status)
	assert.Equal(t, models.PhaseCreated, transactions[0].Phase())
}

func TestRegisterForEvent_CapacityExceeded(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.store, 2500, testutil.IntPtr(1))

	f.gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(o OrderRequest) bool {
		return strings.HasPrefix(o.ID, EventReferencePrefix) &&
			o.Amount == 2500 &&
			o.Description == "Event Registration - "+event.Name &&
			o.BillingAddress.FirstName == "John"
	})).Return(&OrderResponse{OrderTrackingID: "T9", RedirectURL: "https://pay.example/T9"}, nil).Once()

	redirect, err := f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/T9", redirect.RedirectURL)

	_, err = f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	assert.EqualValues(t, 1, f.countTransactions(t))
	f.gateway.AssertNumberOfCalls(t, "SubmitOrder", 1)

	tx, err := f.store.GetTransactionByMerchantReference(ctx, redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, "John Kamau", tx.CustomerName)
	assert.True(t, decimal.NewFromInt(2500).Equal(tx.Amount))
}

func TestRegisterForEvent_GatewayNotConfigured(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.store, 1500, testutil.IntPtr(10))

	_, err := f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
	assert.EqualValues(t, 0, f.countTransactions(t))

	reloaded, err := f.store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.RegistrationCount)
}

func TestRegisterForEvent_FullEventWithoutGatewayIsFull(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.store, 1500, testutil.IntPtr(1))
	require.NoError(t, f.store.UpdateEvent(ctx, event.ID, map[string]interface{}{"registration_count": 1}))

	_, err := f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NotErrorIs(t, err, ErrGatewayNotConfigured)
	assert.EqualValues(t, 0, f.countTransactions(t))
}

func TestRegisterForEvent_UnknownOrInactiveEvent(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()

	_, err := f.service.RegisterForEvent(ctx, uuid.New(), registrationInput())
	assert.ErrorIs(t, err, ErrNotFound)

	event := testutil.CreateEvent(t, f.store, 1500, nil)
	require.NoError(t, f.store.UpdateEvent(ctx, event.ID, map[string]interface{}{"is_active": false}))

	_, err = f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterForEvent_InvalidInput(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	event := testutil.CreateEvent(t, f.store, 1500, nil)

	input := registrationInput()
	input.RegistrationType = "family"

	_, err := f.service.RegisterForEvent(context.Background(), event.ID, input)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, 0, f.countTransactions(t))
}

func TestReconcile_EventRegistrationConfirmation(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.store, 2500, nil)

	f.gateway.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(&OrderResponse{OrderTrackingID: "T2", RedirectURL: "https://pay.example/T2"}, nil)
	f.notifier.On("SendEventRegistrationConfirmation", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.DescriptionOr("") == "Event Registration - "+event.Name
	})).Return(nil).Once()

	redirect, err := f.service.RegisterForEvent(ctx, event.ID, registrationInput())
	require.NoError(t, err)

	result, err := f.service.Reconcile(ctx, "T2", redirect.MerchantReference, &StatusResponse{PaymentStatusCode: "1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	f.notifier.AssertExpectations(t)
}

func TestReconcile_FailureThenRegressionRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	tx := &models.Transaction{
		PesapalMerchantReference: "DON-failflow00",
		Type:                     models.TransactionTypeDonation,
		Amount:                   decimal.NewFromInt(75),
		CustomerName:             "Jane Doe",
		CustomerEmail:            "jane@example.com",
	}
	require.NoError(t, f.store.CreateDonation(ctx, tx, &models.Donation{DonationType: "custom", Amount: tx.Amount}))

	f.notifier.On("SendPaymentFailedNotification", mock.Anything, mock.AnythingOfType("*models.Transaction"), "Insufficient funds").
		Return(nil).Once()

	failed, err := f.service.Reconcile(ctx, "T3", "DON-failflow00", &StatusResponse{
		PaymentStatusCode:        "2",
		PaymentStatusDescription: "Insufficient funds",
		PaymentMethod:            "Visa",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, failed.Outcome)
	assert.Equal(t, models.StatusFailed, failed.Transaction.Status)

	regressed, err := f.service.Reconcile(ctx, "T3", "DON-failflow00", &StatusResponse{PaymentStatusCode: "1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, regressed.Outcome)
	assert.Equal(t, models.StatusFailed, regressed.Status)

	stored, err := f.store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)

	f.notifier.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "SendDonationConfirmation", mock.Anything, mock.Anything)
}

func TestReconcile_PendingRefreshesPayload(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	tx := &models.Transaction{
		PesapalMerchantReference: "DON-stillpend0",
		Type:                     models.TransactionTypeDonation,
		Amount:                   decimal.NewFromInt(20),
		CustomerName:             "Jane Doe",
		CustomerEmail:            "jane@example.com",
	}
	require.NoError(t, f.store.CreateDonation(ctx, tx, &models.Donation{DonationType: "custom", Amount: tx.Amount}))

	result, err := f.service.Reconcile(ctx, "T4", "DON-stillpend0", &StatusResponse{
		PaymentStatusCode: "0",
		PaymentMethod:     "M-Pesa",
		Raw:               []byte(`{"payment_status_code":"0"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefreshed, result.Outcome)
	assert.Equal(t, models.StatusPending, result.Transaction.Status)
	assert.Nil(t, result.Transaction.PaymentMethod)
	assert.Equal(t, "T4", *result.Transaction.PesapalTransactionID)
	assert.JSONEq(t, `{"payment_status_code":"0"}`, string(result.Transaction.IPNData))

	f.notifier.AssertNotCalled(t, "SendPaymentFailedNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_NotifierErrorDoesNotFail(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	tx := &models.Transaction{
		PesapalMerchantReference: "DON-mailfail00",
		Type:                     models.TransactionTypeDonation,
		Amount:                   decimal.NewFromInt(20),
		CustomerName:             "Jane Doe",
		CustomerEmail:            "jane@example.com",
	}
	require.NoError(t, f.store.CreateDonation(ctx, tx, &models.Donation{DonationType: "custom", Amount: tx.Amount}))

	f.notifier.On("SendDonationConfirmation", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	result, err := f.service.Reconcile(ctx, "T5", "DON-mailfail00", &StatusResponse{PaymentStatusCode: "1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Transaction.Status)
}

func TestHandleNotification_TrackingIDOfAnotherOrderRejected(t *testing.T) {
	f := newPaymentFixture(t)
	f.registerIPN(t)
	ctx := context.Background()

	f.gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(o OrderRequest) bool { return o.Amount == 1 })).
		Return(&OrderResponse{OrderTrackingID: "CHEAP", RedirectURL: "https://pay.example/CHEAP"}, nil).Once()
	f.gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(o OrderRequest) bool { return o.Amount == 5000 })).
		Return(&OrderResponse{OrderTrackingID: "BIG", RedirectURL: "https://pay.example/BIG"}, nil).Once()
	f.gateway.On("GetTransactionStatus", mock.Anything, "CHEAP").
		Return(&StatusResponse{PaymentStatusCode: "1"}, nil)

	_, err := f.service.InitiateDonation(ctx, donationInput(1))
	require.NoError(t, err)
	big, err := f.service.InitiateDonation(ctx, donationInput(5000))
	require.NoError(t, err)

	result, err := f.service.HandleNotification(ctx, "CHEAP", big.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, models.StatusPending, result.Status)

	stored, err := f.store.GetTransactionByMerchantReference(ctx, big.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "BIG", *stored.PesapalTransactionID)
	assert.Empty(t, stored.IPNData)

	f.notifier.AssertNotCalled(t, "SendDonationConfirmation", mock.Anything, mock.Anything)
}

func TestReconcile_StatusForOtherMerchantReferenceRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	tx := &models.Transaction{
		PesapalMerchantReference: "DON-mismatch00",
		Type:                     models.TransactionTypeDonation,
		Amount:                   decimal.NewFromInt(5000),
		CustomerName:             "Jane Doe",
		CustomerEmail:            "jane@example.com",
	}
	require.NoError(t, f.store.CreateDonation(ctx, tx, &models.Donation{DonationType: "custom", Amount: tx.Amount}))

	result, err := f.service.Reconcile(ctx, "T7", "DON-mismatch00", &StatusResponse{
		PaymentStatusCode: "1",
		MerchantReference: "DON-somethingelse",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, result.Outcome)

	stored, err := f.store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.PesapalTransactionID)

	f.notifier.AssertNotCalled(t, "SendDonationConfirmation", mock.Anything, mock.Anything)
}

func TestReconcile_UnknownReference(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.Reconcile(context.Background(), "T6", "DON-nosuchref0", &StatusResponse{PaymentStatusCode: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleNotification_MissingParameters(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.HandleNotification(context.Background(), "", "DON-abc")
	assert.ErrorIs(t, err, ErrValidation)
	f.gateway.AssertNotCalled(t, "GetTransactionStatus", mock.Anything, mock.Anything)
}

func TestHandleNotification_GatewayError(t *testing.T) {
	f := newPaymentFixture(t)

	f.gateway.On("GetTransactionStatus", mock.Anything, "T7").
		Return(nil, &GatewayError{Op: OpStatus, StatusCode: 502})

	_, err := f.service.HandleNotification(context.Background(), "T7", "DON-whatever0")
	assert.ErrorIs(t, err, ErrGatewayStatus)
}

func TestGetPaymentStatus(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	redirect, err := f.service.InitiateDonation(ctx, donationInput(30))
	require.NoError(t, err)

	status, err := f.service.GetPaymentStatus(ctx, redirect.MerchantReference)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(status.Amount))

	_, err = f.service.GetPaymentStatus(ctx, "DON-missing000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		code string
		want models.TransactionStatus
	}{
		{"1", models.StatusCompleted},
		{"2", models.StatusFailed},
		{"0", models.StatusPending},
		{"3", models.StatusPending},
		{"", models.StatusPending},
		{"COMPLETED", models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGatewayStatus(tt.code))
		})
	}
}

func TestNewMerchantReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := NewMerchantReference(EventReferencePrefix)
		require.NoError(t, err)
		require.Len(t, ref, 14)
		require.True(t, strings.HasPrefix(ref, "EVT-"))
		for _, r := range ref[4:] {
			require.True(t, strings.ContainsRune(referenceAlphabet, r), "unexpected %q", r)
		}
		seen[ref] = true
	}
	assert.Len(t, seen, 100)
}

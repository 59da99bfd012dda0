package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/models"
	"donation-portal/pkg/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway is the part of the payment gateway the lifecycle depends on
type Gateway interface {
	SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error)
	GetTransactionStatus(ctx context.Context, trackingID string) (*StatusResponse, error)
}

const billingCountryCode = "KE"

// DonationInput is a donor's request to give
type DonationInput struct {
	DonationType  string          `json:"donationType" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,lte=99999999.99"`
	CustomerName  string          `json:"customerName" validate:"required"`
	CustomerEmail string          `json:"customerEmail" validate:"required,email"`
	CustomerPhone string          `json:"customerPhone"`
	IsAnonymous   bool            `json:"isAnonymous"`
	Message       string          `json:"message"`
}

// Validate normalizes the input and checks it
func (in *DonationInput) Validate() error {
	in.DonationType = strings.TrimSpace(in.DonationType)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Amount = in.Amount.Round(2)

	return validateStruct(in)
}

// RegistrationInput is an attendee's request to register for an event
type RegistrationInput struct {
	RegistrationType models.RegistrationType `json:"registrationType" validate:"oneof=individual organization"`
	FirstName        string                  `json:"firstName" validate:"required"`
	MiddleName       string                  `json:"middleName"`
	LastName         string                  `json:"lastName" validate:"required"`
	Email            string                  `json:"email" validate:"required,email"`
	Phone            string                  `json:"phone" validate:"required"`
	OrganizationName string                  `json:"organizationName"`
}

// Validate normalizes the input and checks it
func (in *RegistrationInput) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)

	return validateStruct(in)
}

// PaymentRedirect tells the client where to send the payer next
type PaymentRedirect struct {
	TransactionID     uuid.UUID `json:"transactionId"`
	RedirectURL       string    `json:"redirectUrl"`
	MerchantReference string    `json:"merchantReference"`
	TestMode          bool      `json:"testMode,omitempty"`
}

// PaymentStatus is the public view of a transaction
type PaymentStatus struct {
	Status      models.TransactionStatus `json:"status"`
	Amount      decimal.Decimal          `json:"amount"`
	Description *string                  `json:"description"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// ReconcileOutcome describes what a gateway callback did to a transaction
type ReconcileOutcome string

const (
	OutcomeApplied   ReconcileOutcome = "applied"
	OutcomeRefreshed ReconcileOutcome = "refreshed"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeRejected  ReconcileOutcome = "rejected"
)

// ReconcileResult is the result of applying a gateway status
type ReconcileResult struct {
	Transaction *models.Transaction
	Status      models.TransactionStatus
	Outcome     ReconcileOutcome
}

// PaymentService drives transactions from creation to settlement
type PaymentService struct {
	store    *database.Store
	gateway  Gateway
	notifier Notifier
	cfg      *config.Config
}

// NewPaymentService creates a payment lifecycle service
func NewPaymentService(store *database.Store, gateway Gateway, notifier Notifier, cfg *config.Config) *PaymentService {
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
	}
}

// MapGatewayStatus maps a gateway payment status code to a transaction status
func MapGatewayStatus(code string) models.TransactionStatus {
	switch strings.TrimSpace(code) {
	case "1":
		return models.StatusCompleted
	case "2":
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

// InitiateDonation records a donation and submits it to the gateway.
// Without a registered IPN URL the donation is settled locally (test mode).
func (s *PaymentService) InitiateDonation(ctx context.Context, input DonationInput) (*PaymentRedirect, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	reference, err := NewMerchantReference(DonationReferencePrefix)
	if err != nil {
		return nil, err
	}

	description := "Donation - " + input.DonationType
	tx := &models.Transaction{
		PesapalMerchantReference: reference,
		Type:                     models.TransactionTypeDonation,
		Amount:                   input.Amount,
		Currency:                 models.DefaultCurrency,
		Status:                   models.StatusPending,
		CustomerName:             input.CustomerName,
		CustomerEmail:            input.CustomerEmail,
		CustomerPhone:            optional(input.CustomerPhone),
		Description:              &description,
	}
	donation := &models.Donation{
		DonationType: input.DonationType,
		Amount:       input.Amount,
		IsAnonymous:  input.IsAnonymous,
		Message:      optional(strings.TrimSpace(input.Message)),
	}
	if err := s.store.CreateDonation(ctx, tx, donation); err != nil {
		return nil, err
	}

	ipn, err := s.store.GetIPNURL(ctx, s.cfg.IPNURL())
	if err != nil {
		return nil, err
	}
	if !ipn.IsValid() {
		if _, err := s.store.TransitionStatus(ctx, tx.ID, database.StatusUpdate{Status: models.StatusCompleted}); err != nil {
			return nil, err
		}
		logging.Warnf("Gateway not configured, donation %s completed in test mode", reference)
		return &PaymentRedirect{
			TransactionID:     tx.ID,
			RedirectURL:       s.cfg.CallbackURL(reference),
			MerchantReference: reference,
			TestMode:          true,
		}, nil
	}

	firstName, lastName := splitName(input.CustomerName)
	order := OrderRequest{
		ID:             reference,
		Currency:       models.DefaultCurrency,
		Amount:         input.Amount.InexactFloat64(),
		Description:    fmt.Sprintf("%s - %s", s.cfg.ServiceName, input.DonationType),
		CallbackURL:    s.cfg.CallbackURL(reference),
		NotificationID: ipn.IPNID,
		BillingAddress: BillingAddress{
			EmailAddress: input.CustomerEmail,
			PhoneNumber:  input.CustomerPhone,
			CountryCode:  billingCountryCode,
			FirstName:    firstName,
			LastName:     lastName,
		},
	}
	return s.submit(ctx, tx, order)
}

// RegisterForEvent reserves a seat and submits the registration fee to the gateway
func (s *PaymentService) RegisterForEvent(ctx context.Context, eventID uuid.UUID, input RegistrationInput) (*PaymentRedirect, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return nil, err
	}
	if !event.IsActive {
		return nil, fmt.Errorf("event %s is not active: %w", eventID, ErrNotFound)
	}
	if event.IsFull() {
		return nil, ErrCapacityExceeded
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	ipn, err := s.store.GetIPNURL(ctx, s.cfg.IPNURL())
	if err != nil {
		return nil, err
	}
	if !ipn.IsValid() {
		return nil, ErrGatewayNotConfigured
	}

	reference, err := NewMerchantReference(EventReferencePrefix)
	if err != nil {
		return nil, err
	}

	description := "Event Registration - " + event.Name
	tx := &models.Transaction{
		PesapalMerchantReference: reference,
		Type:                     models.TransactionTypeEventRegistration,
		Amount:                   event.RegistrationFee,
		Currency:                 models.DefaultCurrency,
		Status:                   models.StatusPending,
		CustomerName:             input.FirstName + " " + input.LastName,
		CustomerEmail:            input.Email,
		CustomerPhone:            optional(input.Phone),
		Description:              &description,
	}
	registration := &models.EventRegistration{
		EventID:          event.ID,
		RegistrationType: input.RegistrationType,
		FirstName:        input.FirstName,
		MiddleName:       optional(input.MiddleName),
		LastName:         input.LastName,
		Email:            input.Email,
		Phone:            input.Phone,
		OrganizationName: optional(input.OrganizationName),
	}
	if err := s.store.CreateEventRegistration(ctx, tx, registration); err != nil {
		if errors.Is(err, database.ErrEventFull) {
			return nil, ErrCapacityExceeded
		}
		return nil, err
	}

	order := OrderRequest{
		ID:             reference,
		Currency:       models.DefaultCurrency,
		Amount:         event.RegistrationFee.InexactFloat64(),
		Description:    description,
		CallbackURL:    s.cfg.CallbackURL(reference),
		NotificationID: ipn.IPNID,
		BillingAddress: BillingAddress{
			EmailAddress: input.Email,
			PhoneNumber:  input.Phone,
			CountryCode:  billingCountryCode,
			FirstName:    input.FirstName,
			MiddleName:   input.MiddleName,
			LastName:     input.LastName,
		},
	}
	return s.submit(ctx, tx, order)
}

// submit sends the order and records the tracking id. On failure the transaction stays PENDING.
func (s *PaymentService) submit(ctx context.Context, tx *models.Transaction, order OrderRequest) (*PaymentRedirect, error) {
	resp, err := s.gateway.SubmitOrder(ctx, order)
	if err != nil {
		logging.Errorf("Order submission failed for %s: %v", tx.PesapalMerchantReference, err)
		return nil, err
	}

	if err := s.store.SetTrackingID(ctx, tx.ID, resp.OrderTrackingID, resp.RedirectURL); err != nil {
		return nil, err
	}

	logging.Infof("Order %s submitted, tracking id %s", tx.PesapalMerchantReference, resp.OrderTrackingID)
	return &PaymentRedirect{
		TransactionID:     tx.ID,
		RedirectURL:       resp.RedirectURL,
		MerchantReference: tx.PesapalMerchantReference,
	}, nil
}

// HandleNotification processes a gateway callback: it fetches the
// authoritative status for trackingID and applies it to the transaction.
func (s *PaymentService) HandleNotification(ctx context.Context, trackingID, merchantReference string) (*ReconcileResult, error) {
	if trackingID == "" || merchantReference == "" {
		return nil, invalid("", "Missing required parameters")
	}

	status, err := s.gateway.GetTransactionStatus(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, trackingID, merchantReference, status)
}

// Reconcile applies a gateway status to the transaction with merchantReference.
// Only PENDING transactions change; repeats of a settled status and
// regressions are reported through the outcome and send no email.
func (s *PaymentService) Reconcile(ctx context.Context, trackingID, merchantReference string, status *StatusResponse) (*ReconcileResult, error) {
	tx, err := s.store.GetTransactionByMerchantReference(ctx, merchantReference)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logging.Errorf("Transaction not found for reference: %s", merchantReference)
			return nil, fmt.Errorf("transaction %s: %w", merchantReference, ErrNotFound)
		}
		return nil, err
	}

	target := MapGatewayStatus(status.EffectiveStatusCode())
	log := logging.With(
		zap.String("merchant_reference", merchantReference),
		zap.String("tracking_id", trackingID),
		zap.String("current", string(tx.Status)),
		zap.String("target", string(target)),
	)

	if err := matchOrder(tx, trackingID, merchantReference, status); err != nil {
		log.Warn("Gateway status does not belong to this transaction", zap.Error(err))
		return &ReconcileResult{Transaction: tx, Status: tx.Status, Outcome: OutcomeRejected}, nil
	}

	if err := models.CheckTransition(tx.Status, target); err != nil {
		return s.settled(log, tx, target, err), nil
	}

	update := database.StatusUpdate{
		Status:     target,
		TrackingID: trackingID,
		Payload:    rawPayload(status),
	}
	if target.IsTerminal() && status.PaymentMethod != "" {
		method := status.PaymentMethod
		update.PaymentMethod = &method
	}

	applied, err := s.store.TransitionStatus(ctx, tx.ID, update)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetTransaction(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another callback settled the transaction first
		return s.settled(log, current, target, models.CheckTransition(current.Status, target)), nil
	}

	if target == models.StatusPending {
		log.Debug("Transaction still pending, payload refreshed")
		return &ReconcileResult{Transaction: current, Status: target, Outcome: OutcomeRefreshed}, nil
	}

	log.Info("Transaction settled")
	s.notify(ctx, current, target, status.PaymentStatusDescription)
	return &ReconcileResult{Transaction: current, Status: target, Outcome: OutcomeApplied}, nil
}

// matchOrder checks that the gateway status describes the order of tx
func matchOrder(tx *models.Transaction, trackingID, merchantReference string, status *StatusResponse) error {
	if tx.PesapalTransactionID != nil && *tx.PesapalTransactionID != "" && *tx.PesapalTransactionID != trackingID {
		return fmt.Errorf("tracking id %s, order was submitted as %s", trackingID, *tx.PesapalTransactionID)
	}
	if status.MerchantReference != "" && status.MerchantReference != merchantReference {
		return fmt.Errorf("gateway reports merchant reference %s", status.MerchantReference)
	}
	return nil
}

func (s *PaymentService) settled(log *zap.Logger, tx *models.Transaction, target models.TransactionStatus, reason error) *ReconcileResult {
	if errors.Is(reason, models.ErrStatusUnchanged) {
		log.Info("Duplicate gateway callback ignored")
		return &ReconcileResult{Transaction: tx, Status: tx.Status, Outcome: OutcomeDuplicate}
	}
	log.Warn("Status regression rejected", zap.Error(reason))
	return &ReconcileResult{Transaction: tx, Status: tx.Status, Outcome: OutcomeRejected}
}

// notify sends the outcome email; failures never fail the callback
func (s *PaymentService) notify(ctx context.Context, tx *models.Transaction, status models.TransactionStatus, reason string) {
	var err error
	switch {
	case status == models.StatusCompleted && tx.Type == models.TransactionTypeDonation:
		err = s.notifier.SendDonationConfirmation(ctx, tx)
	case status == models.StatusCompleted && tx.Type == models.TransactionTypeEventRegistration:
		err = s.notifier.SendEventRegistrationConfirmation(ctx, tx)
	case status == models.StatusFailed:
		err = s.notifier.SendPaymentFailedNotification(ctx, tx, reason)
	}
	if err != nil {
		logging.Errorf("Failed to send %s notification for %s: %v", status, tx.PesapalMerchantReference, err)
	}
}

// GetPaymentStatus returns the public status of a transaction
func (s *PaymentService) GetPaymentStatus(ctx context.Context, merchantReference string) (*PaymentStatus, error) {
	tx, err := s.store.GetTransactionByMerchantReference(ctx, merchantReference)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", merchantReference, ErrNotFound)
		}
		return nil, err
	}
	return &PaymentStatus{
		Status:      tx.Status,
		Amount:      tx.Amount,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}, nil
}

func rawPayload(status *StatusResponse) []byte {
	if len(status.Raw) > 0 {
		return status.Raw
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return nil
	}
	return payload
}

// splitName splits "Jane Wanjiru Doe" into "Jane" and "Wanjiru Doe"
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

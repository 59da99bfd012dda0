package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/models"
	"donation-portal/pkg/logging"

	"github.com/shopspring/decimal"
)

// GatewayStore persists the gateway token and IPN registrations
type GatewayStore interface {
	GetCachedToken(ctx context.Context) (*models.PesapalToken, error)
	SaveCachedToken(ctx context.Context, token string, expiresAt time.Time) (*models.PesapalToken, error)
	GetIPNURL(ctx context.Context, url string) (*models.PesapalIPNURL, error)
	SaveIPNURL(ctx context.Context, url, ipnID string) (*models.PesapalIPNURL, error)
}

// GatewayCode is a status or error code the gateway sends either as a string or a number
type GatewayCode string

func (c *GatewayCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = GatewayCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = GatewayCode(n.String())
	return nil
}

// APIError is the error object embedded in gateway responses
type APIError struct {
	Type    string
	Code    GatewayCode
	Message string
}

func (e *APIError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}
	var obj struct {
		ErrorType string      `json:"error_type"`
		Code      GatewayCode `json:"code"`
		Message   string      `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Type, e.Code, e.Message = obj.ErrorType, obj.Code, obj.Message
	return nil
}

func (e *APIError) present() bool {
	return e != nil && (e.Type != "" || e.Code != "" || e.Message != "")
}

type tokenResponse struct {
	Token      string    `json:"token"`
	ExpiryDate string    `json:"expiryDate"`
	Error      *APIError `json:"error"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
}

type ipnResponse struct {
	URL         string    `json:"url"`
	CreatedDate string    `json:"created_date"`
	IPNID       string    `json:"ipn_id"`
	Error       *APIError `json:"error"`
	Status      string    `json:"status"`
}

// BillingAddress identifies the payer on the hosted payment page
type BillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name,omitempty"`
	LastName     string `json:"last_name"`
}

// OrderRequest is the body of SubmitOrderRequest
type OrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress BillingAddress `json:"billing_address"`
}

// OrderResponse is the gateway's answer to an order submission
type OrderResponse struct {
	OrderTrackingID   string    `json:"order_tracking_id"`
	MerchantReference string    `json:"merchant_reference"`
	RedirectURL       string    `json:"redirect_url"`
	Error             *APIError `json:"error"`
	Status            string    `json:"status"`
}

// StatusResponse is the gateway's view of a payment
type StatusResponse struct {
	PaymentMethod            string          `json:"payment_method"`
	Amount                   decimal.Decimal `json:"amount"`
	CreatedDate              string          `json:"created_date"`
	ConfirmationCode         string          `json:"confirmation_code"`
	PaymentStatusDescription string          `json:"payment_status_description"`
	Description              string          `json:"description"`
	Message                  string          `json:"message"`
	PaymentAccount           string          `json:"payment_account"`
	CallBackURL              string          `json:"call_back_url"`
	StatusCode               GatewayCode     `json:"status_code"`
	MerchantReference        string          `json:"merchant_reference"`
	PaymentStatusCode        GatewayCode     `json:"payment_status_code"`
	Currency                 string          `json:"currency"`
	Error                    *APIError       `json:"error"`
	Status                   GatewayCode     `json:"status"`

	// Raw is the response body as received
	Raw []byte `json:"-"`
}

// EffectiveStatusCode is payment_status_code, or status_code when the gateway left it empty
func (r *StatusResponse) EffectiveStatusCode() string {
	if r.PaymentStatusCode != "" {
		return string(r.PaymentStatusCode)
	}
	return string(r.StatusCode)
}

// PesapalService talks to the Pesapal v3 API
type PesapalService struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	ipnURL         string
	client         *http.Client
	store          GatewayStore
	cache          *TokenCache
	now            func() time.Time
}

// NewPesapalService creates a gateway client. cache may be nil.
func NewPesapalService(cfg *config.Config, store GatewayStore, cache *TokenCache) *PesapalService {
	return &PesapalService{
		baseURL:        strings.TrimRight(cfg.PesapalBaseURL, "/"),
		consumerKey:    cfg.PesapalConsumerKey,
		consumerSecret: cfg.PesapalConsumerSecret,
		ipnURL:         cfg.IPNURL(),
		client:         &http.Client{Timeout: cfg.PesapalTimeout},
		store:          store,
		cache:          cache,
		now:            time.Now,
	}
}

// GetAccessToken returns a bearer token, requesting a new one when the cached token expired
func (s *PesapalService) GetAccessToken(ctx context.Context) (string, error) {
	if token, ok := s.cache.Get(ctx); ok {
		return token, nil
	}

	cached, err := s.store.GetCachedToken(ctx)
	if err != nil {
		logging.Warnf("Token cache lookup failed: %v", err)
	} else if cached.IsValid(s.now()) {
		s.cache.Set(ctx, cached.Token, cached.ExpiresAt.Sub(s.now()))
		return cached.Token, nil
	}

	if s.consumerKey == "" || s.consumerSecret == "" {
		return "", &GatewayError{Op: OpAuth, Message: "consumer key and secret are not configured"}
	}

	var resp tokenResponse
	body := map[string]string{
		"consumer_key":    s.consumerKey,
		"consumer_secret": s.consumerSecret,
	}
	if _, err := s.do(ctx, OpAuth, http.MethodPost, "/Auth/RequestToken", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Error.present() {
		return "", apiFailure(OpAuth, resp.Error)
	}
	if resp.Token == "" {
		return "", &GatewayError{Op: OpAuth, Message: "empty token in response"}
	}

	expiresAt := s.parseExpiry(resp.ExpiryDate)
	if _, err := s.store.SaveCachedToken(ctx, resp.Token, expiresAt); err != nil {
		logging.Warnf("Failed to persist gateway token: %v", err)
	}
	s.cache.Set(ctx, resp.Token, expiresAt.Sub(s.now()))

	return resp.Token, nil
}

// RegisterIPNURL registers url for payment notifications and returns its IPN id.
// A URL that is already registered is returned without calling the gateway.
func (s *PesapalService) RegisterIPNURL(ctx context.Context, ipnURL string) (string, error) {
	existing, err := s.store.GetIPNURL(ctx, ipnURL)
	if err != nil {
		return "", err
	}
	if existing.IsValid() {
		return existing.IPNID, nil
	}

	token, err := s.GetAccessToken(ctx)
	if err != nil {
		return "", err
	}

	var resp ipnResponse
	body := map[string]string{
		"url":                   ipnURL,
		"ipn_notification_type": "GET",
	}
	if _, err := s.do(ctx, OpRegisterIPN, http.MethodPost, "/URLSetup/RegisterIPN", token, body, &resp); err != nil {
		return "", err
	}
	if resp.Error.present() {
		return "", apiFailure(OpRegisterIPN, resp.Error)
	}
	if resp.IPNID == "" {
		return "", &GatewayError{Op: OpRegisterIPN, Message: "empty ipn_id in response"}
	}

	if _, err := s.store.SaveIPNURL(ctx, ipnURL, resp.IPNID); err != nil {
		return "", err
	}
	return resp.IPNID, nil
}

// InitializeIPNURL registers this service's webhook URL. Failures are logged;
// payments stay in offline mode until a registration succeeds.
func (s *PesapalService) InitializeIPNURL(ctx context.Context) {
	ipnID, err := s.RegisterIPNURL(ctx, s.ipnURL)
	if err != nil {
		logging.Errorf("Failed to initialize IPN URL %s: %v", s.ipnURL, err)
		logging.Warnf("Donation payments run in offline mode until Pesapal credentials are configured")
		return
	}
	logging.Infof("IPN URL registered: %s (%s)", s.ipnURL, ipnID)
}

// SubmitOrder creates a payment order on the gateway
func (s *PesapalService) SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	token, err := s.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp OrderResponse
	if _, err := s.do(ctx, OpSubmitOrder, http.MethodPost, "/Transactions/SubmitOrderRequest", token, order, &resp); err != nil {
		return nil, err
	}
	if resp.Error.present() {
		return nil, apiFailure(OpSubmitOrder, resp.Error)
	}
	if resp.OrderTrackingID == "" || resp.RedirectURL == "" {
		return nil, &GatewayError{Op: OpSubmitOrder, Message: "missing tracking id or redirect url"}
	}
	return &resp, nil
}

// GetTransactionStatus asks the gateway for the current state of a payment
func (s *PesapalService) GetTransactionStatus(ctx context.Context, trackingID string) (*StatusResponse, error) {
	token, err := s.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	path := "/Transactions/GetTransactionStatus?orderTrackingId=" + url.QueryEscape(trackingID)
	var resp StatusResponse
	raw, err := s.do(ctx, OpStatus, http.MethodGet, path, token, nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error.present() {
		return nil, apiFailure(OpStatus, resp.Error)
	}
	resp.Raw = raw
	return &resp, nil
}

func (s *PesapalService) do(ctx context.Context, op, method, path, token string, body, out interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &GatewayError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: snippet(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return raw, nil
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseExpiry falls back to a short lifetime when the gateway date cannot be read
func (s *PesapalService) parseExpiry(value string) time.Time {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	logging.Warnf("Unrecognized token expiry %q, assuming 5 minutes", value)
	return s.now().Add(5 * time.Minute)
}

func apiFailure(op string, apiErr *APIError) error {
	return &GatewayError{Op: op, Code: string(apiErr.Code), Message: apiErr.Message}
}

func snippet(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

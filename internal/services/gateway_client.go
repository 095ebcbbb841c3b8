package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/models"
)

// GatewayEnvironmentURLs maps environment names to their gateway API endpoints
var GatewayEnvironmentURLs = map[string]string{
	"sandbox":    "https://api-sandbox.razorpay.com/v1",
	"production": "https://api.razorpay.com/v1",
}

// GatewayClient talks to the external payment gateway. Stateless per call;
// signature verification is the only trust placed in gateway responses.
type GatewayClient struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// GatewayOrderRequest is the order-creation payload sent to the gateway.
// Amount is in the smallest currency unit.
type GatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// GatewayOrderResponse is the gateway's order-creation response
type GatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// NewGatewayClient creates a new payment gateway client
func NewGatewayClient(cfg *config.PaymentConfig, logger *logrus.Logger) *GatewayClient {
	return &GatewayClient{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured reports whether gateway credentials are present
func (s *GatewayClient) IsConfigured() bool {
	return s.config.KeyID != "" && s.config.KeySecret != ""
}

// CreateOrder registers an order at the gateway and returns its order id
func (s *GatewayClient) CreateOrder(amount float64, receipt string) (*GatewayOrderResponse, error) {
	if !s.IsConfigured() {
		return nil, models.NewBookingError(models.ReasonGatewayError, "payment gateway is not configured")
	}

	baseURL, ok := GatewayEnvironmentURLs[s.config.Environment]
	if !ok {
		return nil, models.NewBookingError(models.ReasonGatewayError, "unknown gateway environment: %s", s.config.Environment)
	}

	payload := GatewayOrderRequest{
		Amount:   int64(amount * 100), // smallest currency unit
		Currency: s.config.Currency,
		Receipt:  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"receipt": receipt,
			"error":   err.Error(),
		}).Error("Payment gateway order creation failed")
		return nil, models.NewBookingError(models.ReasonGatewayError, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"receipt":     receipt,
			"status_code": resp.StatusCode,
			"body":        string(respBody),
		}).Error("Payment gateway rejected order creation")
		return nil, models.NewBookingError(models.ReasonGatewayError, "payment gateway rejected the order")
	}

	var order GatewayOrderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"receipt":  receipt,
		"order_id": order.ID,
		"amount":   order.Amount,
	}).Info("Payment gateway order created")

	return &order, nil
}

// VerifySignature recomputes the expected HMAC-SHA256 signature over
// orderID|paymentID and compares it in constant time. This is the sole
// authentication of "did the gateway really approve this payment"; no other
// trust is placed in client-supplied success flags. The expected value is
// never returned or logged.
func (s *GatewayClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

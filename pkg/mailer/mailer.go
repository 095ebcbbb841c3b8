package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

// HTTPConfig holds configuration for the HTTP mail gateway
type HTTPConfig struct {
	APIURL string
	APIKey string
	From   string
}

// HTTPMailer sends email through a JSON HTTP gateway
type HTTPMailer struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPMailer creates a new HTTP mail gateway client
func NewHTTPMailer(config HTTPConfig) *HTTPMailer {
	return &HTTPMailer{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send delivers one email through the gateway
func (m *HTTPMailer) Send(to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    m.config.From,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, m.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail gateway returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DevMailer logs email instead of sending it. Used in development and tests.
type DevMailer struct {
	logger *logrus.Logger
}

// NewDevMailer creates a logging mailer
func NewDevMailer(logger *logrus.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// Send logs the email content
func (m *DevMailer) Send(to, subject, body string) error {
	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Dev mailer: email suppressed")
	return nil
}

// Package sms sends short text messages. The production sender posts to an
// HTTP gateway; the development sender logs the message instead.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"contactbook/internal/config"
	"contactbook/internal/logging"
)

// Sender delivers one-off messages to a phone number.
type Sender interface {
	SendResetCode(ctx context.Context, phone, code string) error
}

// NewSender picks the gateway sender when a gateway URL is configured and the
// logging sender otherwise.
func NewSender(cfg config.SMSConfig, logger *logging.Logger) Sender {
	if cfg.GatewayURL != "" {
		return &GatewaySender{
			httpClient: &http.Client{Timeout: 10 * time.Second},
			gatewayURL: cfg.GatewayURL,
			apiKey:     cfg.APIKey,
			senderID:   cfg.SenderID,
		}
	}
	return &LogSender{logger: logger}
}

// LogSender writes the message to the log. Development only.
type LogSender struct {
	logger *logging.Logger
}

func (s *LogSender) SendResetCode(ctx context.Context, phone, code string) error {
	s.logger.Info("sms reset code (dev sender)", "phone", phone, "code", code)
	return nil
}

// GatewaySender posts messages to an SMS gateway as JSON.
type GatewaySender struct {
	httpClient *http.Client
	gatewayURL string
	apiKey     string
	senderID   string
}

type gatewayMessage struct {
	To     string `json:"to"`
	From   string `json:"from"`
	Body   string `json:"body"`
	APIKey string `json:"api_key"`
}

func (s *GatewaySender) SendResetCode(ctx context.Context, phone, code string) error {
	msg := gatewayMessage{
		To:     phone,
		From:   s.senderID,
		Body:   fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.", code),
		APIKey: s.apiKey,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

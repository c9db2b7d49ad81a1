package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendMailer sends email through the Resend HTTPS API.
type ResendMailer struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// ResendOption configures a ResendMailer.
type ResendOption func(*ResendMailer)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) ResendOption {
	return func(m *ResendMailer) { m.baseURL = baseURL }
}

// NewResendMailer creates a client authenticating with the given API key.
func NewResendMailer(apiKey string, logger *zap.Logger, opts ...ResendOption) *ResendMailer {
	m := &ResendMailer{
		apiKey:  apiKey,
		baseURL: defaultResendBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send posts the message to the Resend /emails endpoint and returns the
// provider message ID.
func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return "", fmt.Errorf("encoding send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling email provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.logger.Error("Email provider rejected the send",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var parsed resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding provider response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("email provider returned no message id")
	}

	return parsed.ID, nil
}

package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.brevo.com/v3/smtp/email"

type Config struct {
	APIKey           string `mapstructure:"api_key"`
	FromName         string `mapstructure:"from_name"`
	FromAddress      string `mapstructure:"from_address"`
	OTPExpireMinutes int    `mapstructure:"otp_expire_minutes"`
}

// Sender delivers transactional mail through the Brevo HTTP API. With no API
// key configured it runs in dev mode: the code is logged and delivery
// reported as successful.
type Sender struct {
	config Config
	apiURL string
	client *http.Client
}

func NewSender(config Config) *Sender {
	if config.OTPExpireMinutes <= 0 {
		config.OTPExpireMinutes = 10
	}
	return &Sender{
		config: config,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewSenderWithURL points the sender at a different API endpoint; used by tests.
func NewSenderWithURL(config Config, apiURL string) *Sender {
	s := NewSender(config)
	s.apiURL = apiURL
	return s
}

type address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent"`
}

// SendOTP mails a password-reset code. Called strictly outside any store
// transaction; a failure here must not roll anything back.
func (s *Sender) SendOTP(ctx context.Context, toEmail, code string) error {
	if s.config.APIKey == "" {
		slog.Warn("Brevo API key not configured, dev-mode OTP delivery", "email", toEmail, "otp", code)
		return nil
	}

	payload := sendRequest{
		Sender:      address{Name: s.config.FromName, Email: s.config.FromAddress},
		To:          []address{{Email: toEmail}},
		Subject:     "🔐 Password Reset OTP Code",
		HTMLContent: otpHTMLBody(code, s.config.OTPExpireMinutes, s.config.FromName),
		TextContent: otpTextBody(code, s.config.OTPExpireMinutes, s.config.FromName),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("api-key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo api returned status %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.MessageID != "" {
		slog.Info("OTP email sent", "email", toEmail, "message_id", result.MessageID)
	} else {
		slog.Info("OTP email sent", "email", toEmail)
	}
	return nil
}

func otpHTMLBody(code string, expireMinutes int, fromName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>🔐 Password Reset Request</h1>
    <p>You have requested to reset your password. Use the following One-Time Password (OTP) to complete the process:</p>
    <div style="border: 2px dashed #667eea; padding: 20px; text-align: center; margin: 20px 0;">
      <span style="font-size: 32px; font-weight: bold; letter-spacing: 5px; font-family: monospace;">%s</span>
    </div>
    <p><strong>This code will expire in %d minutes.</strong></p>
    <p style="color: #e74c3c; font-size: 14px;">⚠️ If you did not request this password reset, please ignore this email.</p>
    <p style="color: #888; font-size: 12px;">%s</p>
  </div>
</body>
</html>`, code, expireMinutes, fromName)
}

func otpTextBody(code string, expireMinutes int, fromName string) string {
	return fmt.Sprintf(`Password Reset Request

Your OTP code is: %s

This code will expire in %d minutes.

If you did not request this, please ignore this email.

---
%s
`, code, expireMinutes, fromName)
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrProviderNotConfigured = errors.New("provider not configured")

// EmailSender delivers a single email. Implementations are opaque HTTP
// collaborators; delivery is attempted once with no retry queue.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// TextSender delivers SMS and voice-call notifications to a phone number.
type TextSender interface {
	SendSMS(ctx context.Context, phone, message string) error
	SendCall(ctx context.Context, phone, message string) error
}

// HTTPEmailProvider posts to a JSON email delivery API.
type HTTPEmailProvider struct {
	url        string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewHTTPEmailProvider(url, apiKey, from string) *HTTPEmailProvider {
	return &HTTPEmailProvider{
		url:    url,
		apiKey: apiKey,
		from:   from,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *HTTPEmailProvider) SendEmail(ctx context.Context, to, subject, body string) error {
	if p.url == "" {
		return ErrProviderNotConfigured
	}

	payload := map[string]string{
		"from":    p.from,
		"to":      to,
		"subject": subject,
		"body":    body,
	}
	return postJSON(ctx, p.httpClient, p.url, p.apiKey, payload)
}

// HTTPTextProvider posts to a JSON SMS/voice delivery API.
type HTTPTextProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPTextProvider(url, apiKey string) *HTTPTextProvider {
	return &HTTPTextProvider{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *HTTPTextProvider) SendSMS(ctx context.Context, phone, message string) error {
	return p.send(ctx, "sms", phone, message)
}

func (p *HTTPTextProvider) SendCall(ctx context.Context, phone, message string) error {
	return p.send(ctx, "voice", phone, message)
}

func (p *HTTPTextProvider) send(ctx context.Context, channel, phone, message string) error {
	if p.url == "" {
		return ErrProviderNotConfigured
	}

	payload := map[string]string{
		"channel": channel,
		"to":      phone,
		"message": message,
	}
	return postJSON(ctx, p.httpClient, p.url, p.apiKey, payload)
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmailClient sends transactional email through an external delivery
// provider's JSON API.
type EmailClient struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewEmailClient creates a new email client
func NewEmailClient(baseURL, apiKey, from string) *EmailClient {
	return &EmailClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers one email. No retries; the caller treats failures as
// best-effort.
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(emailRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}

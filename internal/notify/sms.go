package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSClient sends text messages through an external gateway's JSON API.
type SMSClient struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewSMSClient creates a new SMS client
func NewSMSClient(baseURL, apiKey, from string) *SMSClient {
	return &SMSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type smsRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Send delivers one text message. No retries.
func (c *SMSClient) Send(ctx context.Context, to, message string) error {
	payload, err := json.Marshal(smsRequest{From: c.from, To: to, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/sms", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var body smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && !body.Success && body.Message != "" {
		return fmt.Errorf("sms gateway rejected message: %s", body.Message)
	}
	return nil
}

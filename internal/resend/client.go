// Package resend is a minimal client for the Resend transactional email
// API (https://resend.com). Only the send-email call is used.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Resend API root.
const DefaultBaseURL = "https://api.resend.com"

// Client calls the Resend HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Resend API client.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the provider in send logs.
func (c *Client) Name() string {
	return "resend"
}

// APIError is a non-2xx response from the Resend API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend API error (status %d): %s", e.StatusCode, e.Message)
}

// Send submits one email and returns the provider message id.
func (c *Client) Send(ctx context.Context, from, to, subject, html string) (string, error) {
	payload := map[string]interface{}{
		"from":    from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		Name    string `json:"name"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("decode resend response: %w", decodeErr)
	}

	if resp.StatusCode != http.StatusOK {
		msg := result.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return result.ID, nil
}

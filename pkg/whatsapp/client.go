// Package whatsapp provides a client for the WhatsApp Business (Graph) API.
//
// It sends text messages and parses webhook status callbacks. Designed to be
// used as the provider capability of the valuation notifier.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client represents a WhatsApp Business API client.
type Client struct {
	apiURL        string
	accessToken   string
	phoneNumberID string
	client        *http.Client
}

// NewClient creates a new Client for the given Graph API credentials.
func NewClient(apiURL, accessToken, phoneNumberID string) *Client {
	return &Client{
		apiURL:        apiURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("whatsapp client not configured")

// APIError is a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp API error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Permanent reports whether retrying the same request is pointless,
// e.g. a malformed recipient. Throttling and server errors are transient.
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsPermanent reports whether err is a permanent provider rejection.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}

type sendMessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send sends a text message to a phone number in digits-only E.164 form and
// returns the provider message id.
func (c *Client) Send(ctx context.Context, to, text string) (string, error) {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return "", ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID)

	reqBody := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var respBody sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if respBody.Error != nil {
			apiErr.Code = respBody.Error.Code
			apiErr.Message = respBody.Error.Message
		}
		return "", apiErr
	}

	if len(respBody.Messages) == 0 || respBody.Messages[0].ID == "" {
		return "", errors.New("whatsapp API returned no message id")
	}

	return respBody.Messages[0].ID, nil
}

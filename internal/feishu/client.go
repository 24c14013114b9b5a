// Package feishu is a minimal client for the two Feishu open-platform calls
// the bot needs: tenant token retrieval and sending a text message.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://open.feishu.cn"
	httpTimeout    = 30 * time.Second
)

// Client talks to the Feishu open API.
type Client struct {
	appID     string
	appSecret string
	baseURL   string
	client    *http.Client
}

// NewClient constructs a Client for the production endpoint.
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: httpTimeout},
	}
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, appID, appSecret string) *Client {
	c := NewClient(appID, appSecret)
	c.baseURL = baseURL
	return c
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
}

// TenantToken exchanges the app credentials for a tenant access token.
func (c *Client) TenantToken(ctx context.Context) (string, error) {
	body := map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	}

	var resp tokenResponse
	if err := c.postJSON(ctx, "/open-apis/auth/v3/tenant_access_token/internal", "", body, &resp); err != nil {
		return "", fmt.Errorf("fetching tenant token: %w", err)
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("tenant token request rejected: code %d: %s", resp.Code, resp.Msg)
	}

	return resp.TenantAccessToken, nil
}

type sendResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// SendText delivers a plain text message to the given chat.
func (c *Client) SendText(ctx context.Context, token, chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding message content: %w", err)
	}

	body := map[string]string{
		"receive_id": chatID,
		"msg_type":   "text",
		"content":    string(content),
	}

	var resp sendResponse
	if err := c.postJSON(ctx, "/open-apis/im/v1/messages?receive_id_type=chat_id", token, body, &resp); err != nil {
		return fmt.Errorf("sending message to chat %s: %w", chatID, err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("message send rejected for chat %s: code %d: %s", chatID, resp.Code, resp.Msg)
	}

	return nil
}

// postJSON performs a POST with a JSON body and decodes the JSON response into dst.
func (c *Client) postJSON(ctx context.Context, path, token string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}

	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIURL = "https://api.telegram.org/bot%s/sendMessage"

// TelegramNotifier delivers notifications through the Telegram Bot API.
// The userID passed to Notify is the chat id.
type TelegramNotifier struct {
	botToken   string
	apiURL     string
	httpClient *http.Client
}

// TelegramOption configures TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithAPIURL overrides the Bot API URL template (tests).
func WithAPIURL(url string) TelegramOption {
	return func(n *TelegramNotifier) {
		n.apiURL = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(n *TelegramNotifier) {
		n.httpClient = client
	}
}

// NewTelegramNotifier creates a Telegram-backed notifier.
func NewTelegramNotifier(botToken string, opts ...TelegramOption) *TelegramNotifier {
	n := &TelegramNotifier{
		botToken: botToken,
		apiURL:   telegramAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Compile-time interface check.
var _ Notifier = (*TelegramNotifier)(nil)

// sendMessageRequest is a Telegram sendMessage request. ChatID is a string:
// the Bot API accepts both integer ids and @channel names.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// sendMessageResponse is a Telegram API response envelope.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Notify sends a message to the user's chat.
func (n *TelegramNotifier) Notify(ctx context.Context, userID, message string) error {
	url := fmt.Sprintf(n.apiURL, n.botToken)

	body, err := json.Marshal(sendMessageRequest{ChatID: userID, Text: message})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}

package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers a formatted alert payload to its destination.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram delivery sink.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the message with Markdown formatting. When Telegram rejects the
// payload over a parse error, it retries once with all markup stripped before
// giving up.
func (n *TelegramNotifier) Notify(ctx context.Context, message string) error {
	status, apiErr, err := n.send(ctx, message, true)
	if err == nil {
		n.logger.Info().Int("length", len(message)).Msg("alert delivered")
		return nil
	}

	if status == http.StatusBadRequest && isParseRejection(apiErr) {
		n.logger.Warn().Str("description", apiErr).Msg("markdown rejected, retrying as plain text")
		if _, _, retryErr := n.send(ctx, StripMarkdown(message), false); retryErr == nil {
			n.logger.Info().Msg("alert delivered without markup")
			return nil
		}
	}

	return err
}

func (n *TelegramNotifier) send(ctx context.Context, message string, markdown bool) (int, string, error) {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    message,
	}
	if markdown {
		payload["parse_mode"] = "Markdown"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "storm-radar/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read telegram response: %w", err)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, result.Description, fmt.Errorf("telegram status %d: %s", resp.StatusCode, result.Description)
	}
	if !result.OK {
		return resp.StatusCode, result.Description, fmt.Errorf("telegram returned ok=false: %s", result.Description)
	}

	return resp.StatusCode, "", nil
}

func isParseRejection(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "parse") || strings.Contains(lower, "markdown")
}

var _ Notifier = (*TelegramNotifier)(nil)

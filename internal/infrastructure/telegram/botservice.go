// Package telegram posts owner notifications to a chat through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	requestTimeout = 30 * time.Second
)

// BotService is the slice of the Bot API the notifier uses.
type BotService struct {
	endpoint string
	client   *http.Client
}

func NewBotService(config sharedConfig.TelegramConfig) *BotService {
	return newBotService(config, defaultAPIBase)
}

func newBotService(config sharedConfig.TelegramConfig, apiBase string) *BotService {
	return &BotService{
		endpoint: apiBase + "/bot" + config.BotToken + "/",
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendMessage posts HTML formatted text to chatID.
func (s *BotService) SendMessage(ctx context.Context, chatID int64, text string) error {
	return s.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// call posts payload to method. A response with ok=false comes back as
// *APIError.
func (s *BotService) call(ctx context.Context, method string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+method, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("telegram %s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram %s: unreadable response (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if out.OK {
		return nil
	}
	return &APIError{
		ErrorCode:   out.ErrorCode,
		Description: out.Description,
		RetryAfter:  out.Parameters.RetryAfter,
	}
}

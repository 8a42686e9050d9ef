package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/almalabs/wabridge/internal/config"
)

const sendTimeout = 30 * time.Second

// maxButtons is the Cloud API limit on reply buttons per message.
const maxButtons = 3

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	apiURL      string
	accessToken string
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a WhatsApp client. Both the endpoint URL and the access
// token are required; the caller decides whether their absence disables the
// feature or is fatal.
func NewClient(cfg config.WhatsAppConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("whatsapp api_url is not configured")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp access_token is not configured")
	}

	return &Client{
		apiURL:      cfg.APIURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: sendTimeout},
		logger:      logger.With().Str("component", "whatsapp-client").Logger(),
	}, nil
}

// SendText sends a plain text message to the given recipient.
func (c *Client) SendText(ctx context.Context, to string, body string) error {
	payload := SendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextContent{Body: body},
	}

	c.logger.Info().Str("to", to).Msg("Sending text message")

	if err := c.post(ctx, payload); err != nil {
		return fmt.Errorf("send text message: %w", err)
	}
	return nil
}

// SendInteractive sends an interactive reply-buttons message. Between one and
// three buttons must be supplied; buttons missing an id or a title are dropped
// individually, and the send fails if none survive. Validation failures never
// reach the network.
func (c *Client) SendInteractive(ctx context.Context, to string, body string, footer string, buttons []ReplyButton) error {
	if len(buttons) == 0 {
		return fmt.Errorf("interactive message requires at least one button")
	}
	if len(buttons) > maxButtons {
		return fmt.Errorf("interactive message allows at most %d buttons, got %d", maxButtons, len(buttons))
	}

	valid := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		if b.ID == "" || b.Title == "" {
			c.logger.Warn().Str("id", b.ID).Str("title", b.Title).Msg("Dropping button with missing id or title")
			continue
		}
		valid = append(valid, Button{
			Type:  "reply",
			Reply: ButtonReply{ID: b.ID, Title: b.Title},
		})
	}

	if len(valid) == 0 {
		return fmt.Errorf("no valid buttons remain after filtering")
	}

	interactive := &Interactive{
		Type:   "button",
		Body:   InteractiveBody{Text: body},
		Action: InteractiveAction{Buttons: valid},
	}
	if footer != "" {
		interactive.Footer = &InteractiveFooter{Text: footer}
	}

	payload := SendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	}

	c.logger.Info().Str("to", to).Int("buttons", len(valid)).Msg("Sending interactive message")

	if err := c.post(ctx, payload); err != nil {
		return fmt.Errorf("send interactive message: %w", err)
	}
	return nil
}

// MarkRead marks an inbound message as read and shows a typing indicator.
// Best effort: callers are expected to swallow failures.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message id is required")
	}

	payload := MarkReadRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &TypingIndicator{Type: "text"},
	}

	if err := c.post(ctx, payload); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("platform returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

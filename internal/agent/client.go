package agent

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

const callTimeout = 30 * time.Second

// Request is the canonical message sent to the agent endpoint. The user's
// phone number doubles as both user and session identifier so the agent keeps
// one conversation per number.
type Request struct {
	AppName    string  `json:"appName"`
	UserID     string  `json:"userId"`
	SessionID  string  `json:"sessionId"`
	NewMessage Message `json:"newMessage"`
}

// Message is the agent message envelope.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is one message fragment.
type Part struct {
	Text string `json:"text"`
}

// Client calls the backend agent endpoint.
type Client struct {
	url        string
	appName    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an agent client. The endpoint URL is required.
func NewClient(cfg config.AgentConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("agent url is not configured")
	}

	return &Client{
		url:        cfg.URL,
		appName:    cfg.AppName,
		httpClient: &http.Client{Timeout: callTimeout},
		logger:     logger.With().Str("component", "agent-client").Logger(),
	}, nil
}

// FormatRequest builds the agent request for one canonical message.
func (c *Client) FormatRequest(sender string, text string) Request {
	return Request{
		AppName:   c.appName,
		UserID:    sender,
		SessionID: sender,
		NewMessage: Message{
			Role:  "user",
			Parts: []Part{{Text: text}},
		},
	}
}

// Send posts one canonical message to the agent and returns its decoded
// response. The response is deliberately untyped: agents have answered with
// single objects and with ordered lists of events, and the extractor deals
// with both.
func (c *Client) Send(ctx context.Context, sender string, text string) (interface{}, error) {
	payload := c.FormatRequest(sender, text)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal agent request: %w", err)
	}

	c.logger.Info().Str("url", c.url).Str("sender", sender).Msg("Sending message to agent")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var agentResponse interface{}
	if err := json.NewDecoder(resp.Body).Decode(&agentResponse); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Msg("Agent responded")

	return agentResponse, nil
}

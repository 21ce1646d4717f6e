package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the provider's REST API base URL.
const DefaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

// RestConfig contains provider REST API credentials.
type RestConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
}

// RestClient places outbound calls through the provider's REST API.
type RestClient struct {
	cfg        RestConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRestClient creates a REST client with sensible defaults.
func NewRestClient(cfg RestConfig, logger *slog.Logger) *RestClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &RestClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// PlaceCall dials the given number and points the answered call at the
// webhook URL that returns the media-stream TwiML. It returns the
// provider-assigned call SID.
func (c *RestClient) PlaceCall(ctx context.Context, to, webhookURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.cfg.BaseURL, c.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Url", webhookURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build call request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read call response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("call request rejected with status %d: %s", resp.StatusCode, body)
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}
	if created.SID == "" {
		return "", fmt.Errorf("call response missing sid")
	}

	c.logger.Info("call initiated",
		slog.String("call_id", created.SID),
		slog.String("to", to),
	)
	return created.SID, nil
}

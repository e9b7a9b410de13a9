package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/promptmart/promptmart-backend/pkg/config"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"

	errorBodyReadLimit int64 = 2048
	tokenExpirySlack         = 30 * time.Second
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errInvalidPayPalEnv    = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
)

var baseURLs = map[string]string{
	sandboxEnv: "https://api-m.sandbox.paypal.com",
	liveEnv:    "https://api-m.paypal.com",
}

// Client wraps the PayPal Payouts REST API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	environment  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the PayPal client from the configured credentials.
func NewClient(cfg config.PayPalConfig, opts ...Option) (*Client, error) {
	env := cfg.Environment()
	if env != sandboxEnv && env != liveEnv {
		return nil, errInvalidPayPalEnv
	}

	clientID := strings.TrimSpace(cfg.ClientID)
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		baseURL:      baseURLs[env],
		clientID:     clientID,
		clientSecret: clientSecret,
		environment:  env,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = baseURLs[env]
	}

	return client, nil
}

// Environment reports the normalized PayPal environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paypal token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("paypal token response missing access_token")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

type payoutRequest struct {
	SenderBatchHeader payoutBatchHeader `json:"sender_batch_header"`
	Items             []payoutItem      `json:"items"`
}

type payoutBatchHeader struct {
	SenderBatchID string `json:"sender_batch_id"`
	EmailSubject  string `json:"email_subject,omitempty"`
}

type payoutItem struct {
	RecipientType string       `json:"recipient_type"`
	Amount        payoutAmount `json:"amount"`
	Receiver      string       `json:"receiver"`
	SenderItemID  string       `json:"sender_item_id,omitempty"`
	Note          string       `json:"note,omitempty"`
}

type payoutAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type payoutResponse struct {
	BatchHeader struct {
		PayoutBatchID string `json:"payout_batch_id"`
		BatchStatus   string `json:"batch_status"`
	} `json:"batch_header"`
}

// Payout sends amountCents to the receiver email through the Payouts API and
// returns PayPal's payout batch id. PayPal treats each call as a new payout;
// callers are responsible for not re-sending a settled obligation.
func (c *Client) Payout(ctx context.Context, receiverEmail string, amountCents int64, senderItemID string) (string, error) {
	receiver := strings.TrimSpace(receiverEmail)
	if receiver == "" {
		return "", errors.New("receiver email is required")
	}
	if amountCents <= 0 {
		return "", errors.New("amount must be positive")
	}

	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	payload := payoutRequest{
		SenderBatchHeader: payoutBatchHeader{
			SenderBatchID: senderItemID,
		},
		Items: []payoutItem{{
			RecipientType: "EMAIL",
			Amount: payoutAmount{
				Value:    fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100),
				Currency: "USD",
			},
			Receiver:     receiver,
			SenderItemID: senderItemID,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/payouts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build payout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paypal payout request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var result payoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode payout response: %w", err)
	}
	if result.BatchHeader.PayoutBatchID == "" {
		return "", errors.New("paypal payout response missing batch id")
	}
	return result.BatchHeader.PayoutBatchID, nil
}

func apiError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	message := strings.TrimSpace(string(snippet))
	if message == "" {
		message = resp.Status
	}
	return pkgerrors.New(pkgerrors.CodeProcessor, fmt.Sprintf("paypal api %d: %s", resp.StatusCode, message))
}

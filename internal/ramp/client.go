package ramp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// allScopes is the union of every read/write scope the exporter can use.
// The token endpoint grants whichever subset this client is entitled to;
// actual endpoint availability is then probed, not parsed from the grant
// (the granted-scope string format is not guaranteed by Ramp).
const allScopes = "transactions:read bills:read reimbursements:read cashbacks:read statements:read accounting:read accounting:write"

// retryAfterFallback is slept on a 429 that carries no numeric Retry-After.
const retryAfterFallback = 5 * time.Second

// tokenRefreshMargin is how long before expiry EnsureToken re-authenticates.
// Only long-lived callers (the dashboard server) use EnsureToken; the batch
// path acquires one token per process and never refreshes.
const tokenRefreshMargin = 5 * time.Minute

// Config holds Ramp client configuration
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	PageSize     int

	// EnableSync opts in to live writes against the Ramp accounting API.
	// When false (the default), MarkTransactionSynced performs no network
	// call and reports success.
	EnableSync bool
}

// Client is an authenticated Ramp API client. One bearer token and one HTTP
// session are shared across all fetch calls for the client's lifetime.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	pageSize     int
	enableSync   bool

	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new Ramp client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		pageSize:     pageSize,
		enableSync:   cfg.EnableSync,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newRetryTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// SyncEnabled reports whether live accounting writes are opted in.
func (c *Client) SyncEnabled() bool {
	return c.enableSync
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Authenticate exchanges the client credentials for a bearer token. All
// known scopes are requested; the server grants a subset.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", allScopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.tokenExpiry = time.Time{}
	if tok.ExpiresIn > 0 {
		c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	c.mu.Unlock()

	grantedScopes := tok.Scope
	if grantedScopes == "" {
		grantedScopes = "unknown"
	}
	c.logger.Info("Authenticated with Ramp",
		zap.String("granted_scopes", grantedScopes))

	return nil
}

// EnsureToken re-authenticates when the current token is missing or within
// the refresh margin of expiry.
func (c *Client) EnsureToken(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	expiry := c.tokenExpiry
	c.mu.Unlock()

	if token != "" && (expiry.IsZero() || time.Until(expiry) > tokenRefreshMargin) {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) bearerToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Query filters a paginated fetch.
type Query struct {
	Status    string
	StartDate string
	EndDate   string
	PageSize  int
}

func (q Query) values(defaultPageSize int) url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	v.Set("limit", strconv.Itoa(pageSize))
	return v
}

// GetTransactions fetches card transactions.
func (c *Client) GetTransactions(ctx context.Context, q Query) ([]Transaction, error) {
	return getPaginated[Transaction](ctx, c, ResourceTransactions, q)
}

// GetBills fetches bills.
func (c *Client) GetBills(ctx context.Context, q Query) ([]Bill, error) {
	return getPaginated[Bill](ctx, c, ResourceBills, q)
}

// GetReimbursements fetches reimbursements.
func (c *Client) GetReimbursements(ctx context.Context, q Query) ([]Reimbursement, error) {
	return getPaginated[Reimbursement](ctx, c, ResourceReimbursements, q)
}

// GetCashbacks fetches cashbacks.
func (c *Client) GetCashbacks(ctx context.Context, q Query) ([]Cashback, error) {
	return getPaginated[Cashback](ctx, c, ResourceCashbacks, q)
}

// GetStatements fetches statements.
func (c *Client) GetStatements(ctx context.Context, q Query) ([]Statement, error) {
	return getPaginated[Statement](ctx, c, ResourceStatements, q)
}

// page is the envelope every Ramp collection endpoint returns. Different
// API versions name the continuation cursor differently.
type page[T any] struct {
	Data          []T    `json:"data"`
	Next          string `json:"next"`
	NextCursor    string `json:"next_cursor"`
	NextPageToken string `json:"next_page_token"`
}

func (p page[T]) cursor() string {
	if p.Next != "" {
		return p.Next
	}
	if p.NextCursor != "" {
		return p.NextCursor
	}
	return p.NextPageToken
}

// getPaginated walks a cursor-paginated collection to exhaustion. The
// sequence is restartable from scratch only; a mid-page failure aborts the
// whole fetch for that resource type.
func getPaginated[T any](ctx context.Context, c *Client, resource ResourceType, q Query) ([]T, error) {
	endpoint := c.baseURL + "/" + string(resource)
	params := q.values(c.pageSize)

	var results []T
	cursor := ""
	for {
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doGet(ctx, endpoint, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
		}

		var pg page[T]
		if err := json.Unmarshal(body, &pg); err != nil {
			return nil, fmt.Errorf("failed to decode %s page: %w", resource, err)
		}

		results = append(results, pg.Data...)

		cursor = pg.cursor()
		if cursor == "" || len(pg.Data) == 0 {
			break
		}
	}

	c.logger.Debug("Fetched paginated collection",
		zap.String("resource", string(resource)),
		zap.Int("records", len(results)))

	return results, nil
}

// doGet performs one authenticated GET. The transport already retries
// transient statuses with backoff; a 429 that survives those retries gets
// one more attempt after honoring Retry-After.
func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.getOnce(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfterFallback
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		resp.Body.Close()

		c.logger.Warn("Rate limited, retrying after wait",
			zap.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		resp, err = c.getOnce(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) getOnce(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

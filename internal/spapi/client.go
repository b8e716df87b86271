package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"ReviewSend/internal/models"
)

const (
	maxBodyBytes = 10 << 20
	maxPages     = 50
)

type Options struct {
	Endpoint      string
	TokenURL      string
	ClientID      string
	ClientSecret  string
	MarketplaceID string

	RateLimit float64
	Timeout   time.Duration

	// InitialBackoff and MaxRetryElapsed bound retries of 429 and 5xx responses.
	InitialBackoff  time.Duration
	MaxRetryElapsed time.Duration

	HTTPClient *http.Client
}

// Client talks to the Orders API on behalf of many sellers.
type Client struct {
	endpoint      string
	marketplaceID string
	oauth         *oauth2.Config
	http          *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	initial       time.Duration
	maxElapsed    time.Duration
	log           *zap.Logger

	mu      sync.Mutex
	sources map[int64]cachedSource
}

type cachedSource struct {
	refreshToken string
	src          oauth2.TokenSource
}

func New(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.HTTPClient != nil {
		// Copy so the caller's client is not modified; the token refresh has
		// no request context of its own and relies on this timeout.
		c := *opts.HTTPClient
		if c.Timeout <= 0 || c.Timeout > opts.Timeout {
			c.Timeout = opts.Timeout
		}
		httpClient = &c
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxRetryElapsed <= 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}

	burst := int(opts.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		endpoint:      strings.TrimRight(opts.Endpoint, "/"),
		marketplaceID: opts.MarketplaceID,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), burst),
		timeout:    opts.Timeout,
		initial:    opts.InitialBackoff,
		maxElapsed: opts.MaxRetryElapsed,
		log:        logger,
		sources:    make(map[int64]cachedSource),
	}
}

// tokenSource returns a refreshing Login-with-Amazon token source for the seller.
func (c *Client) tokenSource(cred models.Credential) oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.sources[cred.SellerID]; ok && cached.refreshToken == cred.RefreshToken {
		return cached.src
	}

	// The token source keeps this context for every refresh.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})

	c.sources[cred.SellerID] = cachedSource{refreshToken: cred.RefreshToken, src: src}
	return src
}

// accessToken returns a valid access token, refreshing it if needed. The
// refresh is bounded by the client timeout and abandoned when ctx is done.
func (c *Client) accessToken(ctx context.Context, cred models.Credential) (*oauth2.Token, error) {
	type result struct {
		token *oauth2.Token
		err   error
	}

	done := make(chan result, 1)
	go func() {
		token, err := c.tokenSource(cred).Token()
		done <- result{token, err}
	}()

	select {
	case r := <-done:
		return r.token, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) marketplace(cred models.Credential) string {
	if cred.MarketplaceID != "" {
		return cred.MarketplaceID
	}
	return c.marketplaceID
}

// FetchOrders lists orders created after since, following NextToken pages.
func (c *Client) FetchOrders(ctx context.Context, cred models.Credential, since time.Time) ([]OrderHeader, error) {
	var orders []OrderHeader

	query := url.Values{}
	query.Set("MarketplaceIds", c.marketplace(cred))
	query.Set("CreatedAfter", since.UTC().Format(time.RFC3339))

	for page := 0; page < maxPages; page++ {
		var resp ordersResponse
		if err := c.get(ctx, cred, "/orders/v0/orders", query, &resp); err != nil {
			return nil, err
		}
		orders = append(orders, resp.Payload.Orders...)

		if resp.Payload.NextToken == "" {
			return orders, nil
		}
		query = url.Values{}
		query.Set("MarketplaceIds", c.marketplace(cred))
		query.Set("NextToken", resp.Payload.NextToken)
	}

	c.log.Warn("order listing truncated",
		zap.Int64("seller_id", cred.SellerID),
		zap.Int("pages", maxPages),
	)
	return orders, nil
}

func (c *Client) FetchOrderItems(ctx context.Context, cred models.Credential, orderID string) ([]LineItem, error) {
	var items []LineItem

	path := "/orders/v0/orders/" + url.PathEscape(orderID) + "/orderItems"
	query := url.Values{}

	for page := 0; page < maxPages; page++ {
		var resp orderItemsResponse
		if err := c.get(ctx, cred, path, query, &resp); err != nil {
			return nil, err
		}
		items = append(items, resp.Payload.OrderItems...)

		if resp.Payload.NextToken == "" {
			break
		}
		query = url.Values{}
		query.Set("NextToken", resp.Payload.NextToken)
	}

	return items, nil
}

// FetchBuyerEmail returns "" when the order carries no buyer email.
func (c *Client) FetchBuyerEmail(ctx context.Context, cred models.Credential, orderID string) (string, error) {
	var resp buyerInfoResponse
	path := "/orders/v0/orders/" + url.PathEscape(orderID) + "/buyerInfo"
	if err := c.get(ctx, cred, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Payload.BuyerEmail, nil
}

// get performs a throttled GET with retries on 429 and 5xx.
func (c *Client) get(ctx context.Context, cred models.Credential, path string, query url.Values, out any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		token, err := c.accessToken(ctx, cred)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("access token: %w", err))
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-amz-access-token", token.AccessToken)
		req.Header.Set("x-amz-date", time.Now().UTC().Format("20060102T150405Z"))
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("spapi %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("spapi %s: read body: %w", path, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{Status: resp.StatusCode, Path: path, Body: string(body)}
			if statusErr.Retryable() {
				c.log.Debug("spapi request throttled or failed, retrying",
					zap.String("path", path),
					zap.Int("status", resp.StatusCode),
				)
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("spapi %s: decode: %w", path, err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxElapsedTime = c.maxElapsed

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

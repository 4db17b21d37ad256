package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"bingo-tracker/internal/config"
	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

var ErrMissingAPIKey = errors.New("WOM_API_KEY is required")

// APIError is a non-2xx response from the stats API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error on %s: %d %s", e.Endpoint, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == fasthttp.StatusTooManyRequests || e.StatusCode >= fasthttp.StatusInternalServerError
}

type WOMClient struct {
	apiKey     string
	userAgent  string
	baseURL    string
	maxRetries int
	retryBase  time.Duration
	retryMax   time.Duration

	client  *fasthttp.Client
	metrics *metrics.Manager
	logger  zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewWOMClient(cfg *config.Config, m *metrics.Manager, logger zerolog.Logger) (*WOMClient, error) {
	if cfg.WOMAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &WOMClient{
		apiKey:     cfg.WOMAPIKey,
		userAgent:  cfg.WOMUserAgent,
		baseURL:    cfg.WOMBaseURL,
		maxRetries: cfg.FetchMaxRetries,
		retryBase:  constants.RetryBaseDelay,
		retryMax:   constants.RetryMaxDelay,
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		metrics: m,
		logger:  logger,
		rateLimit: RateLimitInfo{
			Limit:     100,
			Remaining: 100,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}, nil
}

func (c *WOMClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

// Wait is how long to hold off before the next request: zero while requests
// remain, otherwise the time left until the window resets.
func (r RateLimitInfo) Wait(now time.Time) time.Duration {
	if r.Remaining > 0 || r.Reset <= 0 {
		return 0
	}
	return max(r.UpdatedAt.Add(time.Duration(r.Reset)*time.Second).Sub(now), 0)
}

func (c *WOMClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetCompetition returns a competition with its participations.
func (c *WOMClient) GetCompetition(ctx context.Context, id int) (*CompetitionDetails, error) {
	path := fmt.Sprintf("/competitions/%d", id)
	return doRequest[CompetitionDetails](ctx, c, "competition", fasthttp.MethodGet, path)
}

// UpdatePlayer asks the API to take a fresh snapshot of the player.
func (c *WOMClient) UpdatePlayer(ctx context.Context, username string) (*PlayerDetails, error) {
	path := "/players/" + url.PathEscape(username)
	return doRequest[PlayerDetails](ctx, c, "update_player", fasthttp.MethodPost, path)
}

// GetPlayerDetails returns the player with their latest snapshot.
func (c *WOMClient) GetPlayerDetails(ctx context.Context, username string) (*PlayerDetails, error) {
	path := "/players/" + url.PathEscape(username)
	return doRequest[PlayerDetails](ctx, c, "player_details", fasthttp.MethodGet, path)
}

func (c *WOMClient) backoff() retry.Backoff {
	b := retry.NewExponential(c.retryBase)
	b = retry.WithCappedDuration(c.retryMax, b)
	return retry.WithMaxRetries(uint64(c.maxRetries), b)
}

func doRequest[T any](ctx context.Context, client *WOMClient, endpoint, method, path string) (*T, error) {
	var result T
	attempt := 0
	err := retry.Do(ctx, client.backoff(), func(ctx context.Context) error {
		attempt++
		body, err := client.send(ctx, endpoint, method, path)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return err
			}
			client.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Msg("request failed, retrying")
			return retry.RetryableError(err)
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *WOMClient) send(ctx context.Context, endpoint, method, path string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.SetUserAgent(c.userAgent)
	req.Header.SetContentType("application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	c.updateRateLimit(resp)
	c.metrics.RecordAPIRequest(endpoint, resp.StatusCode())

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	// resp is released on return
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}

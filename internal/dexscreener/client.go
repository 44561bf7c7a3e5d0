package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/metrics"
	"github.com/liamashdown/wardai/internal/ratelimit"
)

var (
	// ErrRateLimited is returned on HTTP 429 and on non-JSON bodies, which
	// DexScreener serves when it throttles
	ErrRateLimited = errors.New("dexscreener rate limited")
	// ErrNotFound is returned when a token has no trading pairs
	ErrNotFound = errors.New("token not found or no trading pairs available")
)

const apiName = "dexscreener"

// Client handles communication with the DexScreener public API
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
}

// NewClient creates a new DexScreener client
func NewClient(cfg *config.Config) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.DexScreenerBaseURL, "/")).
		SetTimeout(cfg.DexScreenerTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.DexScreenerRetries).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 429 is surfaced to the caller instead of retried
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:    httpClient,
		limiter: ratelimit.New(cfg.DexScreenerRPS, cfg.DexScreenerBurst),
	}
}

// TokenPairs fetches every pair that trades the given token
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	var out TokensResponse
	if err := c.get(ctx, "tokens", "/latest/dex/tokens/{address}", map[string]string{"address": address}, &out); err != nil {
		return nil, err
	}
	if len(out.Pairs) == 0 {
		return nil, ErrNotFound
	}
	return out.Pairs, nil
}

// TopBoosts fetches the tokens with the most active boosts
func (c *Client) TopBoosts(ctx context.Context) ([]Boost, error) {
	var out []Boost
	if err := c.get(ctx, "token_boosts", "/token-boosts/top/v1", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest(apiName, endpoint, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetPathParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return fmt.Errorf("non-JSON response (%q): %w", ct, ErrRateLimited)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", errors.Join(err, ErrRateLimited))
	}

	return nil
}

// truncate caps s at maxLen runes so multi-byte characters stay whole
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

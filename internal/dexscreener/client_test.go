package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/liamashdown/wardai/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairsJSON = `{
  "schemaVersion": "1.0.0",
  "pairs": [
    {
      "chainId": "solana",
      "dexId": "raydium",
      "pairAddress": "PAIR1",
      "baseToken": {"address": "TOKEN", "name": "Ward", "symbol": "WARD"},
      "priceUsd": "0.0123",
      "txns": {"h24": {"buys": 120, "sells": 80}},
      "volume": {"h24": 50000},
      "priceChange": {"h24": -12.5},
      "liquidity": {"usd": 75000},
      "fdv": 900000,
      "marketCap": 800000,
      "pairCreatedAt": 1700000000000,
      "info": {"websites": [{"label": "Website", "url": "https://ward.example"}]}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.Config{
		DexScreenerBaseURL: srv.URL + "/",
		DexScreenerRPS:     1000,
		DexScreenerBurst:   100,
		DexScreenerTimeout: 2 * time.Second,
		DexScreenerRetries: retries,
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestTokenPairs(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, pairsJSON)
	}, 0)

	pairs, err := c.TokenPairs(context.Background(), "TOKEN")
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.Equal(t, "/latest/dex/tokens/TOKEN", gotPath)
	p := pairs[0]
	assert.Equal(t, "WARD", p.BaseToken.Symbol)
	assert.Equal(t, 75000.0, p.LiquidityUSD())
	assert.Equal(t, 120, p.Txns.H24.Buys)
	assert.Equal(t, -12.5, p.PriceChange.H24)
	assert.Equal(t, int64(1700000000000), p.PairCreatedAt)
	require.NotNil(t, p.Info)
	assert.Len(t, p.Info.Websites, 1)
}

func TestTokenPairsErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		rateLimited bool
		notFound    bool
	}{
		{
			name: "no pairs",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"schemaVersion":"1.0.0","pairs":null}`)
			},
			notFound: true,
		},
		{
			name: "429",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusTooManyRequests, `{}`)
			},
			rateLimited: true,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, "<html>slow down</html>")
			},
			rateLimited: true,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `{"pairs": [`)
			},
			rateLimited: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadGateway, `{"error":"upstream"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler, 0)
			_, err := c.TokenPairs(context.Background(), "TOKEN")
			require.Error(t, err)
			assert.Equal(t, tt.rateLimited, errors.Is(err, ErrRateLimited), err.Error())
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound), err.Error())
		})
	}
}

func TestTokenPairsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, pairsJSON)
	}, 2)

	pairs, err := c.TokenPairs(context.Background(), "TOKEN")
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenPairsDoesNotRetry429(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, `{}`)
	}, 3)

	_, err := c.TokenPairs(context.Background(), "TOKEN")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTopBoosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-boosts/top/v1", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"chainId":"solana","tokenAddress":"A","totalAmount":500},
			{"chainId":"base","tokenAddress":"B","totalAmount":100}
		]`)
	}, 0)

	boosts, err := c.TopBoosts(context.Background())
	require.NoError(t, err)
	require.Len(t, boosts, 2)
	assert.Equal(t, "A", boosts[0].TokenAddress)
	assert.Equal(t, 500.0, boosts[0].TotalAmount)
	assert.Equal(t, "base", boosts[1].ChainID)
}

func TestClientHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pairsJSON)
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.TokenPairs(ctx, "TOKEN")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	body := "erreur: débit dépassé ⚠️ réessayez"

	got := truncate(body, 20)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.Equal(t, "erreur: débit dép...", got)
}

package monitor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/liamashdown/wardai/internal/dexscreener"
)

const (
	trendingCandidates   = 20
	trendingLimit        = 10
	trendingMinLiquidity = 1000
)

// TrendingToken is one row of the trending list
type TrendingToken struct {
	Address        string  `json:"address"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	PriceUSD       string  `json:"priceUsd"`
	Volume24h      float64 `json:"volume24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	PriceChange6h  float64 `json:"priceChange6h"`
	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange5m  float64 `json:"priceChange5m"`
	Liquidity      float64 `json:"liquidity"`
	MarketCap      float64 `json:"marketCap"`
	Txns24h        int     `json:"txns24h"`
	Age            string  `json:"age"`
	ChainID        string  `json:"chainId"`
	DexID          string  `json:"dexId"`
	PairAddress    string  `json:"pairAddress"`
	URL            string  `json:"url"`
	BoostAmount    float64 `json:"boostAmount"`
}

// Trending returns boosted tokens on the configured chain with at least
// 1,000 USD of liquidity, by 24h volume descending. Tokens whose lookup
// fails are skipped.
func (m *Monitor) Trending(ctx context.Context) ([]TrendingToken, error) {
	boosts, err := m.source.TopBoosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top boosts: %w", err)
	}

	var onChain []dexscreener.Boost
	for _, b := range boosts {
		if b.ChainID == m.cfg.ChainID {
			onChain = append(onChain, b)
		}
		if len(onChain) == trendingCandidates {
			break
		}
	}

	results := make([]*TrendingToken, len(onChain))
	var wg sync.WaitGroup
	for i, b := range onChain {
		wg.Add(1)
		go func(i int, b dexscreener.Boost) {
			defer wg.Done()

			select {
			case <-m.workerPool:
			case <-ctx.Done():
				return
			}
			defer func() { m.workerPool <- struct{}{} }()

			pairs, err := m.source.TokenPairs(ctx, b.TokenAddress)
			if err != nil {
				m.log.WithError(err).WithField("token", b.TokenAddress).Debug("Skipping trending token")
				return
			}
			pair, ok := dexscreener.BestPair(pairs, m.cfg.ChainID)
			if !ok || pair.LiquidityUSD() < trendingMinLiquidity {
				return
			}
			t := m.trendingToken(b, pair)
			results[i] = &t
		}(i, b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := make([]TrendingToken, 0, len(results))
	for _, r := range results {
		if r != nil {
			tokens = append(tokens, *r)
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Volume24h > tokens[j].Volume24h
	})
	if len(tokens) > trendingLimit {
		tokens = tokens[:trendingLimit]
	}
	return tokens, nil
}

func (m *Monitor) trendingToken(b dexscreener.Boost, p dexscreener.Pair) TrendingToken {
	snap := dexscreener.Snapshot(p, m.now())

	url := p.URL
	if url == "" {
		url = fmt.Sprintf("https://dexscreener.com/%s/%s", m.cfg.ChainID, b.TokenAddress)
	}

	return TrendingToken{
		Address:        b.TokenAddress,
		Name:           orDefault(p.BaseToken.Name, "Unknown"),
		Symbol:         orDefault(p.BaseToken.Symbol, "UNKNOWN"),
		PriceUSD:       orDefault(p.PriceUSD, "0"),
		Volume24h:      p.Volume.H24,
		PriceChange24h: p.PriceChange.H24,
		PriceChange6h:  p.PriceChange.H6,
		PriceChange1h:  p.PriceChange.H1,
		PriceChange5m:  p.PriceChange.M5,
		Liquidity:      p.LiquidityUSD(),
		MarketCap:      snap.MarketCapUSD,
		Txns24h:        p.Txns.H24.Buys + p.Txns.H24.Sells,
		Age:            dexscreener.FormatAge(p.PairCreatedAt, m.now()),
		ChainID:        m.cfg.ChainID,
		DexID:          p.DexID,
		PairAddress:    p.PairAddress,
		URL:            url,
		BoostAmount:    b.TotalAmount,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

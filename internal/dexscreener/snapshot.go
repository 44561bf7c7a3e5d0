package dexscreener

import (
	"fmt"
	"strings"
	"time"

	"github.com/liamashdown/wardai/internal/risk"
)

// BestPair returns the pair with the deepest liquidity. When chainID is not
// empty only pairs on that chain are considered.
func BestPair(pairs []Pair, chainID string) (Pair, bool) {
	var best Pair
	found := false
	for _, p := range pairs {
		if chainID != "" && p.ChainID != chainID {
			continue
		}
		if !found || p.LiquidityUSD() > best.LiquidityUSD() {
			best = p
			found = true
		}
	}
	return best, found
}

// PairForToken picks the deepest pair that trades address as its base token.
// Addresses compare case-insensitively. When the token is only ever the
// quote side it falls back to the deepest pair overall.
func PairForToken(pairs []Pair, address string) (Pair, bool) {
	var base []Pair
	for _, p := range pairs {
		if strings.EqualFold(p.BaseToken.Address, address) {
			base = append(base, p)
		}
	}
	if len(base) > 0 {
		return BestPair(base, "")
	}
	return BestPair(pairs, "")
}

// TokenFor returns whichever side of the pair is address, preferring the
// base token
func (p Pair) TokenFor(address string) Token {
	if !strings.EqualFold(p.BaseToken.Address, address) && strings.EqualFold(p.QuoteToken.Address, address) {
		return p.QuoteToken
	}
	return p.BaseToken
}

// SnapshotFor is Snapshot keyed by the address the caller asked about, with
// the name and symbol of that side of the pair
func SnapshotFor(p Pair, address string, now time.Time) risk.TokenSnapshot {
	s := Snapshot(p, now)
	tok := p.TokenFor(address)
	s.Address = address
	s.Name = tok.Name
	s.Symbol = tok.Symbol
	return s
}

// Snapshot normalizes a pair into the scoring input. Missing numbers are
// already zero after decoding; market cap falls back to FDV and a missing
// creation time yields age 0.
func Snapshot(p Pair, now time.Time) risk.TokenSnapshot {
	marketCap := p.MarketCap
	if marketCap <= 0 {
		marketCap = p.Fdv
	}

	return risk.TokenSnapshot{
		Address:               p.BaseToken.Address,
		Name:                  p.BaseToken.Name,
		Symbol:                p.BaseToken.Symbol,
		PriceUSD:              p.PriceUSD,
		PriceChangePercent24h: p.PriceChange.H24,
		LiquidityUSD:          p.LiquidityUSD(),
		MarketCapUSD:          marketCap,
		Volume24hUSD:          p.Volume.H24,
		Buys24h:               p.Txns.H24.Buys,
		Sells24h:              p.Txns.H24.Sells,
		AgeDays:               AgeDays(p.PairCreatedAt, now),
		PairCreatedAt:         p.PairCreatedAt,
	}
}

// AgeDays converts a creation time in unix millis to fractional days
func AgeDays(createdAtMillis int64, now time.Time) float64 {
	if createdAtMillis <= 0 {
		return 0
	}
	age := now.Sub(time.UnixMilli(createdAtMillis))
	if age < 0 {
		return 0
	}
	return age.Hours() / 24
}

// FormatAge renders a pair age as minutes, hours, days or months ("45m",
// "3h", "12d", "4mo"). A missing creation time reads as "0m".
func FormatAge(createdAtMillis int64, now time.Time) string {
	var age time.Duration
	if createdAtMillis > 0 {
		age = now.Sub(time.UnixMilli(createdAtMillis))
	}
	if age < 0 {
		age = 0
	}
	days := int(age.Hours() / 24)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	case days < 30:
		return fmt.Sprintf("%dd", days)
	default:
		return fmt.Sprintf("%dmo", days/30)
	}
}

// AuditFacts extracts what the contract audit needs from a pair
func AuditFacts(p Pair) risk.AuditFacts {
	return risk.AuditFacts{
		ChainID:      p.ChainID,
		LiquidityUSD: p.LiquidityUSD(),
		FdvUSD:       p.Fdv,
		Buys24h:      p.Txns.H24.Buys,
		Sells24h:     p.Txns.H24.Sells,
		HasWebsites:  p.Info != nil && len(p.Info.Websites) > 0,
	}
}

// FactorInput extracts what the weighted factor model needs from a pair
func FactorInput(p Pair) risk.FactorInput {
	return risk.FactorInput{
		LiquidityUSD:   p.LiquidityUSD(),
		FdvUSD:         p.Fdv,
		Volume24hUSD:   p.Volume.H24,
		PriceChange24h: p.PriceChange.H24,
		Buys24h:        p.Txns.H24.Buys,
		Sells24h:       p.Txns.H24.Sells,
		DexID:          p.DexID,
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/liamashdown/wardai/internal/dexscreener"
	"github.com/liamashdown/wardai/internal/metrics"
	"github.com/liamashdown/wardai/internal/monitor"
	"github.com/liamashdown/wardai/internal/risk"
	"github.com/liamashdown/wardai/internal/storage"
	"github.com/sirupsen/logrus"
)

// TokenContext is the market summary returned next to an analysis
type TokenContext struct {
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Address        string  `json:"address"`
	PriceUSD       string  `json:"priceUsd"`
	Volume24h      float64 `json:"volume24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	Liquidity      float64 `json:"liquidity"`
	Fdv            float64 `json:"fdv"`
	MarketCap      float64 `json:"marketCap"`
	PairCreatedAt  int64   `json:"pairCreatedAt"`
	Txns24h        int     `json:"txns24h"`
	Buys24h        int     `json:"buys24h"`
	Sells24h       int     `json:"sells24h"`
	Age            string  `json:"age"`
}

type analyzeRequest struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      string `json:"chainId"`
}

type analyzeResponse struct {
	Success  bool                `json:"success"`
	Token    TokenContext        `json:"token"`
	Analysis risk.RiskAssessment `json:"analysis"`
}

type auditTokenInfo struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Liquidity float64 `json:"liquidity"`
	Fdv       float64 `json:"fdv"`
	Volume24h float64 `json:"volume24h"`
}

type auditResponse struct {
	ContractAddress string            `json:"contractAddress"`
	OverallScore    int               `json:"overallScore"`
	Vulnerabilities []risk.AuditCheck `json:"vulnerabilities"`
	ScanTime        string            `json:"scanTime"`
	TokenInfo       auditTokenInfo    `json:"tokenInfo"`
}

func (s *Server) handleAnalyzeTokenGet(w http.ResponseWriter, r *http.Request) {
	s.analyzeToken(w, r, strings.TrimSpace(r.URL.Query().Get("address")))
}

func (s *Server) handleAnalyzeTokenPost(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	s.analyzeToken(w, r, strings.TrimSpace(req.TokenAddress))
}

func (s *Server) analyzeToken(w http.ResponseWriter, r *http.Request, address string) {
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Token address is required"})
		return
	}

	pair, err := s.lookupPair(r.Context(), address)
	switch {
	case errors.Is(err, dexscreener.ErrRateLimited):
		s.log.WithError(err).WithField("token", address).Warn("Rate limited by DexScreener")
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":         "Rate limit exceeded. Please wait 60 seconds before trying again.",
			"isRateLimited": true,
		})
		return
	case errors.Is(err, dexscreener.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Token not found or no trading pairs available"})
		return
	case err != nil:
		s.log.WithError(err).WithField("token", address).Error("Token analysis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to analyze token",
			"details": err.Error(),
		})
		return
	}

	now := s.now()
	snap := dexscreener.SnapshotFor(pair, address, now)
	analysis := s.engine.Assess(snap)
	metrics.RecordAssessment("api", string(analysis.RiskLevel), analysis.RiskScore, severities(analysis))

	if s.recorder != nil {
		if err := s.recorder.InsertAssessment(r.Context(), storage.NewAssessment("api", snap, analysis, now)); err != nil {
			s.log.WithError(err).Warn("Failed to record assessment")
		}
	}

	s.log.WithFields(logrus.Fields{
		"token":      address,
		"risk_score": analysis.RiskScore,
		"risk_level": analysis.RiskLevel,
	}).Info("Token analyzed")

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		Token: TokenContext{
			Name:           snap.Name,
			Symbol:         snap.Symbol,
			Address:        address,
			PriceUSD:       pair.PriceUSD,
			Volume24h:      pair.Volume.H24,
			PriceChange24h: pair.PriceChange.H24,
			Liquidity:      pair.LiquidityUSD(),
			Fdv:            pair.Fdv,
			MarketCap:      pair.MarketCap,
			PairCreatedAt:  pair.PairCreatedAt,
			Txns24h:        pair.Txns.H24.Buys + pair.Txns.H24.Sells,
			Buys24h:        pair.Txns.H24.Buys,
			Sells24h:       pair.Txns.H24.Sells,
			Age:            dexscreener.FormatAge(pair.PairCreatedAt, now),
		},
		Analysis: analysis,
	})
}

func (s *Server) handleContractAudit(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Token address required"})
		return
	}

	pair, err := s.lookupPair(r.Context(), address)
	switch {
	case errors.Is(err, dexscreener.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Token not found"})
		return
	case errors.Is(err, dexscreener.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":         "Rate limit exceeded. Please wait 60 seconds before trying again.",
			"isRateLimited": true,
		})
		return
	case err != nil:
		s.log.WithError(err).WithField("token", address).Error("Contract audit failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to audit contract"})
		return
	}

	report := risk.Audit(dexscreener.AuditFacts(pair))
	tok := pair.TokenFor(address)
	writeJSON(w, http.StatusOK, auditResponse{
		ContractAddress: address,
		OverallScore:    report.OverallScore,
		Vulnerabilities: report.Vulnerabilities,
		ScanTime:        s.now().UTC().Format(isoMillis),
		TokenInfo: auditTokenInfo{
			Name:      tok.Name,
			Symbol:    tok.Symbol,
			Liquidity: pair.LiquidityUSD(),
			Fdv:       pair.Fdv,
			Volume24h: pair.Volume.H24,
		},
	})
}

type factorMarketData struct {
	Liquidity         float64 `json:"liquidity"`
	Volume24h         float64 `json:"volume24h"`
	Fdv               float64 `json:"fdv"`
	PriceChange       float64 `json:"priceChange"`
	TotalTransactions int     `json:"totalTransactions"`
}

type factorResponse struct {
	TokenAddress string `json:"tokenAddress"`
	risk.FactorReport
	RealTimeData factorMarketData `json:"realTimeData"`
}

func (s *Server) handleFactorAnalysis(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Token address required"})
		return
	}

	pair, err := s.lookupPair(r.Context(), address)
	switch {
	case errors.Is(err, dexscreener.ErrRateLimited):
		s.log.WithError(err).WithField("token", address).Warn("Rate limited by DexScreener")
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":         "Rate limit exceeded. Please wait 60 seconds before trying again.",
			"isRateLimited": true,
		})
		return
	case errors.Is(err, dexscreener.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Token not found or no trading pairs available"})
		return
	case err != nil:
		s.log.WithError(err).WithField("token", address).Error("Factor analysis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to analyze risk factors",
			"details": err.Error(),
		})
		return
	}

	in := dexscreener.FactorInput(pair)
	report := risk.Factors(in)

	s.log.WithFields(logrus.Fields{
		"token":          address,
		"overall_risk":   report.OverallRisk,
		"recommendation": report.Recommendation,
	}).Info("Risk factors analyzed")

	writeJSON(w, http.StatusOK, factorResponse{
		TokenAddress: address,
		FactorReport: report,
		RealTimeData: factorMarketData{
			Liquidity:         in.LiquidityUSD,
			Volume24h:         in.Volume24hUSD,
			Fdv:               in.FdvUSD,
			PriceChange:       in.PriceChange24h,
			TotalTransactions: in.Buys24h + in.Sells24h,
		},
	})
}

// handleTrendingTokens always answers 200; failures carry an error field
func (s *Server) handleTrendingTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.feed.Trending(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Trending tokens fetch failed")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"error": "Failed to fetch trending tokens",
			"pairs": []monitor.TrendingToken{},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pairs":     tokens,
		"timestamp": s.now().UTC().Format(isoMillis),
	})
}

// handleLiveAlerts serves the background feed, or polls inline when the
// background monitor is disabled
func (s *Server) handleLiveAlerts(w http.ResponseWriter, r *http.Request) {
	var feed []monitor.FeedAlert
	if s.cfg.MonitorEnabled {
		feed = s.feed.Feed()
	} else {
		batch, err := s.feed.Poll(r.Context())
		if err != nil {
			s.log.WithError(err).Warn("Live alerts poll failed")
		}
		feed = batch
	}
	if feed == nil {
		feed = []monitor.FeedAlert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":    feed,
		"timestamp": s.now().UTC().Format(isoMillis),
	})
}

func (s *Server) lookupPair(ctx context.Context, address string) (dexscreener.Pair, error) {
	pairs, err := s.tokens.TokenPairs(ctx, address)
	if err != nil {
		return dexscreener.Pair{}, err
	}
	pair, ok := dexscreener.PairForToken(pairs, address)
	if !ok {
		return dexscreener.Pair{}, dexscreener.ErrNotFound
	}
	return pair, nil
}

func severities(a risk.RiskAssessment) []string {
	out := make([]string, len(a.Threats))
	for i, t := range a.Threats {
		out[i] = string(t.Severity)
	}
	return out
}

package risk

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Recommendation is the verdict of the weighted factor model
type Recommendation string

const (
	RecommendSafe     Recommendation = "safe"
	RecommendModerate Recommendation = "moderate"
	RecommendCaution  Recommendation = "caution"
	RecommendAvoid    Recommendation = "avoid"
)

// FactorInput is the pair data the factor model reads
type FactorInput struct {
	LiquidityUSD   float64
	FdvUSD         float64
	Volume24hUSD   float64
	PriceChange24h float64
	Buys24h        int
	Sells24h       int
	DexID          string
}

// RiskFactor is one weighted category. Scores are 0-100, higher is safer.
type RiskFactor struct {
	Category    string   `json:"category"`
	Score       int      `json:"score"`
	Weight      int      `json:"weight"`
	Description string   `json:"description"`
	Indicators  []string `json:"indicators"`
}

// FactorReport is the weighted model output
type FactorReport struct {
	OverallRisk        int            `json:"overallRisk"`
	RugPullProbability int            `json:"rugPullProbability"`
	ManipulationScore  int            `json:"manipulationScore"`
	ConfidenceLevel    int            `json:"confidenceLevel"`
	RiskFactors        []RiskFactor   `json:"riskFactors"`
	Recommendation     Recommendation `json:"recommendation"`
}

const (
	factorFullLiquidityUSD   = 50000
	factorMinLiquidityUSD    = 5000
	factorActiveVolumeUSD    = 1000
	factorHighVolumeRatio    = 2
	factorElevatedVolumeRate = 0.5
)

// Factors scores a pair on five weighted categories: liquidity depth, holder
// distribution, trading patterns, contract signals and price stability.
// overallRisk is 100 minus the weighted sum.
func Factors(in FactorInput) FactorReport {
	liquidity := nonNegative(in.LiquidityUSD)
	fdv := nonNegative(in.FdvUSD)
	volume := nonNegative(in.Volume24hUSD)
	change := finite(in.PriceChange24h)
	buys, sells := max(in.Buys24h, 0), max(in.Sells24h, 0)
	total := buys + sells

	liquidityScore := int(math.Min(100, math.Round(liquidity/factorFullLiquidityUSD*100)))

	// Zero counts read as one so an idle pair lands at 50%
	buyShare := float64(atLeastOne(buys)) / float64(atLeastOne(sells)+atLeastOne(buys))
	holderScore := int(math.Round(buyShare * 100))

	volumeRatio := 0.0
	if liquidity > 0 {
		volumeRatio = volume / liquidity
	}
	tradingScore := 90
	switch {
	case volumeRatio > factorHighVolumeRatio:
		tradingScore = 30
	case volumeRatio > factorElevatedVolumeRate:
		tradingScore = 60
	}

	hasLiquidity := liquidity > factorMinLiquidityUSD
	hasVolume := volume > factorActiveVolumeUSD
	contractScore := 0
	if hasLiquidity {
		contractScore += 50
	}
	if hasVolume {
		contractScore += 50
	}

	volatility := math.Abs(change)
	stabilityScore, volatilityLabel := 85, "Moderate"
	switch {
	case volatility > 50:
		stabilityScore, volatilityLabel = 30, "Extreme"
	case volatility > 20:
		stabilityScore, volatilityLabel = 60, "High"
	}

	liqFdvPct := "0"
	if fdv > 0 {
		liqFdvPct = fmt.Sprintf("%.2f", liquidity/fdv*100)
	}
	sign := ""
	if change > 0 {
		sign = "+"
	}
	trend := "Bearish"
	if change > 0 {
		trend = "Bullish"
	}
	platform := in.DexID
	if platform == "" {
		platform = "Unknown"
	}

	factors := []RiskFactor{
		{
			Category:    "Liquidity Analysis",
			Score:       liquidityScore,
			Weight:      25,
			Description: "LP lock status and liquidity depth",
			Indicators: []string{
				"Total Liquidity: $" + usd(liquidity),
				"Liquidity/FDV: " + liqFdvPct + "%",
				"24h Volume: $" + usd(volume),
			},
		},
		{
			Category:    "Holder Distribution",
			Score:       holderScore,
			Weight:      20,
			Description: "Token concentration analysis",
			Indicators: []string{
				fmt.Sprintf("Buy/Sell Ratio: %.2f:1", float64(buys)/float64(atLeastOne(sells))),
				fmt.Sprintf("Total Transactions: %d", total),
				fmt.Sprintf("Buyer Activity: %.0f%%", buyShare*100),
			},
		},
		{
			Category:    "Trading Patterns",
			Score:       tradingScore,
			Weight:      20,
			Description: "Trading activity analysis",
			Indicators: []string{
				fmt.Sprintf("Volume/Liquidity: %.2fx", volumeRatio),
				fmt.Sprintf("24h Buys: %d", buys),
				fmt.Sprintf("24h Sells: %d", sells),
			},
		},
		{
			Category:    "Contract Security",
			Score:       contractScore,
			Weight:      20,
			Description: "Smart contract verification",
			Indicators: []string{
				"Liquidity Status: " + pick(hasLiquidity, "Sufficient", "Low"),
				"Trading Active: " + pick(hasVolume, "Yes", "No"),
				"Platform: " + platform,
			},
		},
		{
			Category:    "Price Stability",
			Score:       stabilityScore,
			Weight:      15,
			Description: "Price volatility analysis",
			Indicators: []string{
				fmt.Sprintf("24h Change: %s%.2f%%", sign, change),
				"Volatility: " + volatilityLabel,
				"Price Trend: " + trend,
			},
		},
	}

	weighted := 0.0
	for _, f := range factors {
		weighted += float64(f.Score*f.Weight) / 100
	}
	overall := 100 - int(math.Round(weighted))

	rugPull := clamp(100-float64(liquidityScore)*0.4-float64(contractScore)*0.3-float64(holderScore)*0.3, 0, 100)
	manipulation := clamp(100-float64(tradingScore)*0.5-float64(stabilityScore)*0.5, 0, 100)

	confidence := 75
	switch {
	case total > 100:
		confidence = 95
	case total > 50:
		confidence = 85
	}

	return FactorReport{
		OverallRisk:        overall,
		RugPullProbability: int(math.Round(rugPull)),
		ManipulationScore:  int(math.Round(manipulation)),
		ConfidenceLevel:    confidence,
		RiskFactors:        factors,
		Recommendation:     recommendFor(overall),
	}
}

func recommendFor(risk int) Recommendation {
	switch {
	case risk < 25:
		return RecommendSafe
	case risk < 50:
		return RecommendModerate
	case risk < 75:
		return RecommendCaution
	default:
		return RecommendAvoid
	}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// usd renders a dollar amount with thousands separators and up to 3 decimals
func usd(v float64) string {
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

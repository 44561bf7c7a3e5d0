package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorScores(r FactorReport) map[string]int {
	out := make(map[string]int, len(r.RiskFactors))
	for _, f := range r.RiskFactors {
		out[f.Category] = f.Score
	}
	return out
}

func TestFactors(t *testing.T) {
	tests := []struct {
		name           string
		in             FactorInput
		scores         map[string]int
		overall        int
		rugPull        int
		manipulation   int
		confidence     int
		recommendation Recommendation
	}{
		{
			name: "healthy pair",
			in: FactorInput{
				LiquidityUSD: 100000, FdvUSD: 1000000, Volume24hUSD: 20000,
				PriceChange24h: 5, Buys24h: 120, Sells24h: 80, DexID: "raydium",
			},
			scores: map[string]int{
				"Liquidity Analysis": 100, "Holder Distribution": 60, "Trading Patterns": 90,
				"Contract Security": 100, "Price Stability": 85,
			},
			overall: 12, rugPull: 12, manipulation: 13, confidence: 95,
			recommendation: RecommendSafe,
		},
		{
			name: "heavy selling",
			in: FactorInput{
				LiquidityUSD: 100000, FdvUSD: 1000000, Volume24hUSD: 100000,
				PriceChange24h: 30, Buys24h: 20, Sells24h: 80,
			},
			scores: map[string]int{
				"Liquidity Analysis": 100, "Holder Distribution": 20, "Trading Patterns": 60,
				"Contract Security": 100, "Price Stability": 60,
			},
			overall: 30, rugPull: 24, manipulation: 40, confidence: 85,
			recommendation: RecommendModerate,
		},
		{
			name: "thin pool dumping",
			in: FactorInput{
				LiquidityUSD: 2000, Volume24hUSD: 250000,
				PriceChange24h: -90, Buys24h: 10, Sells24h: 40,
			},
			scores: map[string]int{
				"Liquidity Analysis": 4, "Holder Distribution": 20, "Trading Patterns": 30,
				"Contract Security": 50, "Price Stability": 30,
			},
			overall: 74, rugPull: 77, manipulation: 70, confidence: 75,
			recommendation: RecommendCaution,
		},
		{
			name: "no buyers",
			in: FactorInput{
				LiquidityUSD: 100, Volume24hUSD: 5000,
				PriceChange24h: 80, Sells24h: 99,
			},
			scores: map[string]int{
				"Liquidity Analysis": 0, "Holder Distribution": 1, "Trading Patterns": 30,
				"Contract Security": 50, "Price Stability": 30,
			},
			overall: 79, rugPull: 85, manipulation: 70, confidence: 85,
			recommendation: RecommendAvoid,
		},
		{
			name: "idle pair",
			in:   FactorInput{},
			scores: map[string]int{
				"Liquidity Analysis": 0, "Holder Distribution": 50, "Trading Patterns": 90,
				"Contract Security": 0, "Price Stability": 85,
			},
			overall: 59, rugPull: 85, manipulation: 13, confidence: 75,
			recommendation: RecommendCaution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Factors(tt.in)
			require.Len(t, r.RiskFactors, 5)
			assert.Equal(t, tt.scores, factorScores(r))
			assert.Equal(t, tt.overall, r.OverallRisk)
			assert.Equal(t, tt.rugPull, r.RugPullProbability)
			assert.Equal(t, tt.manipulation, r.ManipulationScore)
			assert.Equal(t, tt.confidence, r.ConfidenceLevel)
			assert.Equal(t, tt.recommendation, r.Recommendation)
		})
	}
}

func TestFactorsWeightsSumToHundred(t *testing.T) {
	total := 0
	for _, f := range Factors(FactorInput{}).RiskFactors {
		total += f.Weight
	}
	assert.Equal(t, 100, total)
}

func TestFactorsIndicators(t *testing.T) {
	r := Factors(FactorInput{
		LiquidityUSD: 100000, FdvUSD: 1000000, Volume24hUSD: 20000,
		PriceChange24h: 5, Buys24h: 120, Sells24h: 80, DexID: "raydium",
	})

	assert.Equal(t, []string{"Total Liquidity: $100,000", "Liquidity/FDV: 10.00%", "24h Volume: $20,000"}, r.RiskFactors[0].Indicators)
	assert.Equal(t, []string{"Buy/Sell Ratio: 1.50:1", "Total Transactions: 200", "Buyer Activity: 60%"}, r.RiskFactors[1].Indicators)
	assert.Equal(t, []string{"Volume/Liquidity: 0.20x", "24h Buys: 120", "24h Sells: 80"}, r.RiskFactors[2].Indicators)
	assert.Equal(t, []string{"Liquidity Status: Sufficient", "Trading Active: Yes", "Platform: raydium"}, r.RiskFactors[3].Indicators)
	assert.Equal(t, []string{"24h Change: +5.00%", "Volatility: Moderate", "Price Trend: Bullish"}, r.RiskFactors[4].Indicators)

	idle := Factors(FactorInput{PriceChange24h: -90})
	assert.Equal(t, "Liquidity/FDV: 0%", idle.RiskFactors[0].Indicators[1])
	assert.Equal(t, "Platform: Unknown", idle.RiskFactors[3].Indicators[2])
	assert.Equal(t, []string{"24h Change: -90.00%", "Volatility: Extreme", "Price Trend: Bearish"}, idle.RiskFactors[4].Indicators)
}

func TestFactorsSanitizesInputs(t *testing.T) {
	r := Factors(FactorInput{
		LiquidityUSD:   math.Inf(1),
		Volume24hUSD:   -5,
		PriceChange24h: math.NaN(),
		Buys24h:        -3,
	})
	assert.Equal(t, Factors(FactorInput{}), r)
}

func TestRecommendFor(t *testing.T) {
	cases := map[int]Recommendation{
		0: RecommendSafe, 24: RecommendSafe,
		25: RecommendModerate, 49: RecommendModerate,
		50: RecommendCaution, 74: RecommendCaution,
		75: RecommendAvoid, 100: RecommendAvoid,
	}
	for score, want := range cases {
		assert.Equal(t, want, recommendFor(score), score)
	}
}

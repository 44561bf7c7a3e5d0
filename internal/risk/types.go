package risk

import "math"

// Level is shared by risk levels and threat severities
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// TokenSnapshot is a point-in-time market record for one trading pair.
// Numeric fields the upstream source did not provide must be zero.
type TokenSnapshot struct {
	Address               string  `json:"address"`
	Name                  string  `json:"name,omitempty"`
	Symbol                string  `json:"symbol,omitempty"`
	PriceUSD              string  `json:"priceUsd,omitempty"`
	PriceChangePercent24h float64 `json:"priceChange24h"`
	LiquidityUSD          float64 `json:"liquidity"`
	MarketCapUSD          float64 `json:"marketCap"`
	Volume24hUSD          float64 `json:"volume24h"`
	Buys24h               int     `json:"buys24h"`
	Sells24h              int     `json:"sells24h"`
	AgeDays               float64 `json:"ageDays"`
	PairCreatedAt         int64   `json:"pairCreatedAt,omitempty"`
}

// Signals are the ratios every rule is evaluated against
type Signals struct {
	PriceChangeAbs float64
	LiquidityRatio float64 // liquidity / market cap
	BuySellRatio   float64 // buys / sells
	VolumeRatio    float64 // 24h volume / market cap
	AgeDays        float64
	Buys           int
	Sells          int
}

// Signals derives rule inputs. Zero denominators are replaced with 1.
func (s TokenSnapshot) Signals() Signals {
	s = s.sanitized()
	return Signals{
		PriceChangeAbs: math.Abs(s.PriceChangePercent24h),
		LiquidityRatio: s.LiquidityUSD / orOne(s.MarketCapUSD),
		BuySellRatio:   float64(s.Buys24h) / orOne(float64(s.Sells24h)),
		VolumeRatio:    s.Volume24hUSD / orOne(s.MarketCapUSD),
		AgeDays:        s.AgeDays,
		Buys:           s.Buys24h,
		Sells:          s.Sells24h,
	}
}

// sanitized zeroes values that cannot come from a well-formed snapshot
func (s TokenSnapshot) sanitized() TokenSnapshot {
	s.PriceChangePercent24h = finite(s.PriceChangePercent24h)
	s.LiquidityUSD = nonNegative(s.LiquidityUSD)
	s.MarketCapUSD = nonNegative(s.MarketCapUSD)
	s.Volume24hUSD = nonNegative(s.Volume24hUSD)
	s.AgeDays = nonNegative(s.AgeDays)
	if s.Buys24h < 0 {
		s.Buys24h = 0
	}
	if s.Sells24h < 0 {
		s.Sells24h = 0
	}
	return s
}

// ThreatFinding is the output of one triggered rule
type ThreatFinding struct {
	Type        string `json:"type"`
	Severity    Level  `json:"severity"`
	Description string `json:"description"`
	Confidence  int    `json:"confidence"`
}

// Metrics are display values derived alongside the score
type Metrics struct {
	InsiderActivity     float64 `json:"insiderActivity"`
	LiquidityHealth     float64 `json:"liquidityHealth"`
	HolderConcentration float64 `json:"holderConcentration"`
	TradingVolume       float64 `json:"tradingVolume"`
	PriceVolatility     float64 `json:"priceVolatility"`
}

// RiskAssessment is the result of scoring one snapshot
type RiskAssessment struct {
	RiskScore       int             `json:"riskScore"`
	RiskLevel       Level           `json:"riskLevel"`
	Threats         []ThreatFinding `json:"threats"`
	Metrics         Metrics         `json:"metrics"`
	Recommendations []string        `json:"recommendations"`
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

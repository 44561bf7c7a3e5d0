package risk

import "fmt"

// Comparison decides which side of a tier threshold triggers it
type Comparison int

const (
	// Above triggers when the metric is strictly greater than the threshold
	Above Comparison = iota
	// Below triggers when the metric is strictly less than the threshold
	Below
)

// Tier is one step of a rule category
type Tier struct {
	Threshold  float64
	Points     int
	Type       string
	Severity   Level
	Confidence int
	Describe   func(Signals) string
}

// Category groups mutually exclusive tiers. Tiers are checked in order and
// at most one of them fires.
type Category struct {
	Name    string
	Metric  func(Signals) float64
	Trigger Comparison
	Tiers   []Tier
}

func (c Category) match(sig Signals) (Tier, bool) {
	v := c.Metric(sig)
	for _, t := range c.Tiers {
		switch c.Trigger {
		case Above:
			if v > t.Threshold {
				return t, true
			}
		case Below:
			if v < t.Threshold {
				return t, true
			}
		}
	}
	return Tier{}, false
}

// LevelThresholds map a score to a Level, checked high to low
type LevelThresholds struct {
	Critical int
	High     int
	Medium   int
}

// Level returns the level for score
func (l LevelThresholds) Level(score int) Level {
	switch {
	case score >= l.Critical:
		return LevelCritical
	case score >= l.High:
		return LevelHigh
	case score >= l.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Advice holds the recommendation texts and the conditions that add them
type Advice struct {
	ByLevel map[Level]string

	LiquidityLockBelow float64
	LiquidityLock      string

	NewTokenBelowDays float64
	NewToken          string

	DumpRatioBelow float64
	Dump           string

	Disclaimers []string
}

// Rules is the full tunable configuration of the engine
type Rules struct {
	Categories          []Category
	Levels              LevelThresholds
	MaxScore            int
	NoThreat            ThreatFinding
	HolderConcentration float64
	Advice              Advice
}

// DefaultRules returns the canonical rule set
func DefaultRules() Rules {
	return Rules{
		Categories: []Category{
			volatilityCategory(),
			liquidityCategory(),
			sellingCategory(),
			ageCategory(),
			volumeCategory(),
		},
		Levels:   LevelThresholds{Critical: 70, High: 45, Medium: 25},
		MaxScore: 100,
		NoThreat: ThreatFinding{
			Type:        "No Critical Threats Detected",
			Severity:    LevelLow,
			Description: "Token shows relatively normal trading patterns. Continue monitoring for changes.",
			Confidence:  70,
		},
		HolderConcentration: 35,
		Advice: Advice{
			ByLevel: map[Level]string{
				LevelCritical: "⚠️ EXTREME CAUTION: This token shows multiple critical red flags. Avoid or invest only what you can afford to lose completely.",
				LevelHigh:     "⚠️ HIGH RISK: Exercise extreme caution. This token shows significant warning signs.",
				LevelMedium:   "⚠️ MODERATE RISK: Monitor closely and be prepared for volatility.",
				LevelLow:      "✓ Relatively stable patterns detected. Continue monitoring for changes.",
			},
			LiquidityLockBelow: 0.10,
			LiquidityLock:      "Verify liquidity is locked to prevent rug pulls. Check if LP tokens are burned.",
			NewTokenBelowDays:  7,
			NewToken:           "New token - wait for more trading history before making large investments.",
			DumpRatioBelow:     0.7,
			Dump:               "High selling pressure detected - be cautious of potential dumps.",
			Disclaimers: []string{
				"Always research the development team and project legitimacy.",
				"Never invest more than you can afford to lose in any cryptocurrency.",
			},
		},
	}
}

func volatilityCategory() Category {
	return Category{
		Name:    "volatility",
		Metric:  func(s Signals) float64 { return s.PriceChangeAbs },
		Trigger: Above,
		Tiers: []Tier{
			{
				Threshold: 100, Points: 35, Type: "Extreme Price Volatility", Severity: LevelCritical, Confidence: 95,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Token experienced %.1f%% price change in 24h. This is a strong indicator of pump and dump schemes.", s.PriceChangeAbs)
				},
			},
			{
				Threshold: 50, Points: 25, Type: "High Price Volatility", Severity: LevelHigh, Confidence: 85,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Token experienced %.1f%% price change in 24h, indicating potential manipulation or high speculation.", s.PriceChangeAbs)
				},
			},
			{
				Threshold: 25, Points: 15, Type: "Moderate Price Volatility", Severity: LevelMedium, Confidence: 75,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Token price changed %.1f%% in 24h. Monitor for continued volatility.", s.PriceChangeAbs)
				},
			},
		},
	}
}

func liquidityCategory() Category {
	return Category{
		Name:    "liquidity",
		Metric:  func(s Signals) float64 { return s.LiquidityRatio },
		Trigger: Below,
		Tiers: []Tier{
			{
				Threshold: 0.02, Points: 30, Type: "Critical Liquidity Risk", Severity: LevelCritical, Confidence: 95,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Liquidity is only %.2f%% of market cap. Extremely high rug pull risk.", s.LiquidityRatio*100)
				},
			},
			{
				Threshold: 0.05, Points: 20, Type: "Low Liquidity Risk", Severity: LevelHigh, Confidence: 90,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Liquidity is %.2f%% of market cap. Vulnerable to rug pulls and manipulation.", s.LiquidityRatio*100)
				},
			},
			{
				Threshold: 0.10, Points: 10, Type: "Moderate Liquidity Risk", Severity: LevelMedium, Confidence: 80,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Liquidity to market cap ratio is %.2f%%. Could be improved for better security.", s.LiquidityRatio*100)
				},
			},
		},
	}
}

func sellingCategory() Category {
	return Category{
		Name:    "selling_pressure",
		Metric:  func(s Signals) float64 { return s.BuySellRatio },
		Trigger: Below,
		Tiers: []Tier{
			{
				Threshold: 0.3, Points: 25, Type: "Severe Selling Pressure", Severity: LevelCritical, Confidence: 90,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Sells (%d) heavily outweigh buys (%d). Possible insider dumping.", s.Sells, s.Buys)
				},
			},
			{
				Threshold: 0.6, Points: 15, Type: "High Selling Pressure", Severity: LevelHigh, Confidence: 80,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Sell transactions (%d) exceed buys (%d), indicating bearish sentiment.", s.Sells, s.Buys)
				},
			},
			{
				Threshold: 0.9, Points: 8, Type: "Moderate Selling Pressure", Severity: LevelMedium, Confidence: 70,
				Describe: func(Signals) string {
					return "More sells than buys detected. Monitor for trend continuation."
				},
			},
		},
	}
}

func ageCategory() Category {
	return Category{
		Name:    "token_age",
		Metric:  func(s Signals) float64 { return s.AgeDays },
		Trigger: Below,
		Tiers: []Tier{
			{
				Threshold: 1, Points: 20, Type: "Newly Launched Token", Severity: LevelHigh, Confidence: 98,
				Describe: func(Signals) string {
					return "Token launched less than 24 hours ago. Extremely high risk period for manipulation."
				},
			},
			{
				Threshold: 3, Points: 15, Type: "Very New Token", Severity: LevelHigh, Confidence: 95,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Token is only %.1f days old. High risk for pump and dump schemes.", s.AgeDays)
				},
			},
			{
				Threshold: 7, Points: 10, Type: "New Token Risk", Severity: LevelMedium, Confidence: 85,
				Describe: func(s Signals) string {
					return fmt.Sprintf("Token is %.1f days old. Still in high-risk period for manipulation.", s.AgeDays)
				},
			},
		},
	}
}

func volumeCategory() Category {
	return Category{
		Name:    "volume",
		Metric:  func(s Signals) float64 { return s.VolumeRatio },
		Trigger: Above,
		Tiers: []Tier{
			{
				Threshold: 2, Points: 15, Type: "Abnormal Trading Volume", Severity: LevelHigh, Confidence: 80,
				Describe: func(s Signals) string {
					return fmt.Sprintf("24h volume is %.0f%% of market cap. May indicate wash trading or bot activity.", s.VolumeRatio*100)
				},
			},
		},
	}
}

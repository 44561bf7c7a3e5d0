package risk

// Engine scores token snapshots against a fixed rule set. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rules Rules
}

// NewEngine creates an engine for the given rules
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

var defaultEngine = NewEngine(DefaultRules())

// Assess scores a snapshot with the default rules
func Assess(s TokenSnapshot) RiskAssessment {
	return defaultEngine.Assess(s)
}

// Rules returns the rule set the engine evaluates
func (e *Engine) Rules() Rules {
	return e.rules
}

// Assess scores a snapshot. Each category contributes at most one finding
// and the contributions are summed, then clamped to [0, MaxScore].
func (e *Engine) Assess(s TokenSnapshot) RiskAssessment {
	sig := s.Signals()

	score := 0
	threats := make([]ThreatFinding, 0, len(e.rules.Categories))
	for _, c := range e.rules.Categories {
		tier, ok := c.match(sig)
		if !ok {
			continue
		}
		score += tier.Points
		threats = append(threats, ThreatFinding{
			Type:        tier.Type,
			Severity:    tier.Severity,
			Description: describe(tier, sig),
			Confidence:  tier.Confidence,
		})
	}

	if len(threats) == 0 {
		threats = append(threats, e.rules.NoThreat)
	}

	if score < 0 {
		score = 0
	}
	if score > e.rules.MaxScore {
		score = e.rules.MaxScore
	}
	level := e.rules.Levels.Level(score)

	return RiskAssessment{
		RiskScore:       score,
		RiskLevel:       level,
		Threats:         threats,
		Metrics:         e.metrics(s, sig),
		Recommendations: e.recommend(level, sig),
	}
}

func (e *Engine) metrics(s TokenSnapshot, sig Signals) Metrics {
	return Metrics{
		InsiderActivity:     round2(clamp((1-sig.BuySellRatio)*100, 0, 100)),
		LiquidityHealth:     round2(clamp(sig.LiquidityRatio*500, 0, 100)),
		HolderConcentration: e.rules.HolderConcentration,
		TradingVolume:       nonNegative(s.Volume24hUSD),
		PriceVolatility:     round2(clamp(sig.PriceChangeAbs*1.2, 0, 100)),
	}
}

func (e *Engine) recommend(level Level, sig Signals) []string {
	a := e.rules.Advice
	recs := make([]string, 0, 4+len(a.Disclaimers))

	if msg, ok := a.ByLevel[level]; ok {
		recs = append(recs, msg)
	}
	if sig.LiquidityRatio < a.LiquidityLockBelow {
		recs = append(recs, a.LiquidityLock)
	}
	if sig.AgeDays < a.NewTokenBelowDays {
		recs = append(recs, a.NewToken)
	}
	if sig.BuySellRatio < a.DumpRatioBelow {
		recs = append(recs, a.Dump)
	}
	return append(recs, a.Disclaimers...)
}

func describe(t Tier, sig Signals) string {
	if t.Describe == nil {
		return t.Type
	}
	return t.Describe(sig)
}

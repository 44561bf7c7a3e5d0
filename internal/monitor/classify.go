package monitor

import (
	"fmt"
	"math"

	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/dexscreener"
)

// Classify maps a pair's 24h activity to a feed alert type and message.
// Rules are checked in order and the first match wins.
func Classify(p dexscreener.Pair) (alerts.Type, string) {
	change := p.PriceChange.H24
	absChange := math.Abs(change)
	volume := p.Volume.H24
	liquidity := p.LiquidityUSD()
	buys := p.Txns.H24.Buys
	sells := p.Txns.H24.Sells

	ratio := float64(buys) / orOne(float64(sells))
	lv := liquidity / orOne(volume)

	switch {
	case absChange > 150:
		dir := "💥 DUMP"
		if change > 0 {
			dir = "🚀 PUMP"
		}
		return alerts.TypeCritical, fmt.Sprintf("EXTREME %s: %.0f%% swing detected!", dir, absChange)
	case liquidity < 3000 && volume > 100000:
		return alerts.TypeCritical, fmt.Sprintf("🚨 RUG PULL RISK: $%.1fK liquidity, $%.0fK volume", liquidity/1000, volume/1000)
	case lv < 0.02 && volume > 50000:
		return alerts.TypeCritical, "⚠️ MANIPULATION WARNING: Extremely low liquidity vs volume ratio"
	case absChange > 80:
		dir := "📉 Sharp dump"
		if change > 0 {
			dir = "📈 Rapid pump"
		}
		return alerts.TypeWarning, fmt.Sprintf("%s: %.0f%% in 24h", dir, absChange)
	case ratio < 0.3 && sells > 20:
		return alerts.TypeWarning, fmt.Sprintf("🔻 SELLING PRESSURE: %d sells overwhelming %d buys", sells, buys)
	case liquidity < 10000 && volume > 50000:
		return alerts.TypeWarning, fmt.Sprintf("⚡ Low liquidity alert: $%.0fK backing high volume", liquidity/1000)
	case change > 40:
		return alerts.TypeWarning, fmt.Sprintf("📊 Volatile: +%.0f%% price surge - monitor for dump", change)
	case ratio > 3 && buys > 30:
		return alerts.TypeSuccess, fmt.Sprintf("✅ STRONG BUYING: %d buys vs %d sells - bullish momentum", buys, sells)
	case change > 15 && change < 35 && ratio > 1.5:
		return alerts.TypeSuccess, fmt.Sprintf("🟢 Healthy growth: +%.0f%% with strong buy support", change)
	case liquidity > 100000 && lv > 0.5:
		return alerts.TypeSuccess, fmt.Sprintf("💎 Solid liquidity: $%.0fK locked - low rug risk", liquidity/1000)
	case absChange > 10:
		sign := ""
		if change > 0 {
			sign = "+"
		}
		return alerts.TypeInfo, fmt.Sprintf("📍 Moderate movement: %s%.1f%% in 24h", sign, change)
	default:
		return alerts.TypeInfo, fmt.Sprintf("👀 Monitoring %s - stable trading activity", p.BaseToken.Symbol)
	}
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

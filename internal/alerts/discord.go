package alerts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
)

// DiscordSender sends alerts to Discord via webhook
type DiscordSender struct {
	webhookURL string
	client     *resty.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	URL         string         `json:"url,omitempty"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      discordFooter  `json:"footer"`
	Timestamp   string         `json:"timestamp"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Send sends the alert to Discord
func (s *DiscordSender) Send(ctx context.Context, payload *AlertPayload) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(discordWebhook{Embeds: []discordEmbed{buildEmbed(payload)}}).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	return nil
}

func buildEmbed(payload *AlertPayload) discordEmbed {
	var title string
	var color int
	switch payload.Type {
	case TypeCritical:
		title = "🚨 Critical token alert"
		color = 0xFF0000
	case TypeWarning:
		title = "⚠️ Token warning"
		color = 0xFFA500
	case TypeSuccess:
		title = "✅ Positive signal"
		color = 0x00C853
	default:
		title = "ℹ️ Token update"
		color = 0x0099FF
	}

	fields := []discordField{
		{Name: "Token", Value: fmt.Sprintf("%s `%s`", payload.Symbol, payload.TokenShort), Inline: true},
		{Name: "Risk Score", Value: fmt.Sprintf("**%d/100** (%s)", payload.RiskScore, payload.RiskLevel), Inline: true},
		{Name: "Liquidity", Value: "$" + humanize.Commaf(roundCents(payload.LiquidityUSD)), Inline: true},
		{Name: "24h Volume", Value: "$" + humanize.Commaf(roundCents(payload.Volume24hUSD)), Inline: true},
	}
	if len(payload.Threats) > 0 {
		fields = append(fields, discordField{
			Name:  "Threats",
			Value: truncate(strings.Join(payload.Threats, "\n"), 1000),
		})
	}

	return discordEmbed{
		Title:       title,
		URL:         payload.PairURL,
		Description: truncate(payload.Message, 2000),
		Color:       color,
		Fields:      fields,
		Footer: discordFooter{
			Text: fmt.Sprintf("Ward AI • %s • %s", payload.Environment, payload.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		},
		Timestamp: payload.Timestamp.Format(time.RFC3339),
	}
}

func roundCents(v float64) float64 {
	return float64(int64(v*100)) / 100
}

// truncate caps s at maxLen runes so multi-byte characters stay whole
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

package alerts

import (
	"context"
	"time"
)

// Type is the feed classification of an alert
type Type string

const (
	TypeCritical Type = "critical"
	TypeWarning  Type = "warning"
	TypeInfo     Type = "info"
	TypeSuccess  Type = "success"
)

// Notify reports whether alerts of this type go to external senders
func (t Type) Notify() bool {
	return t == TypeCritical || t == TypeWarning
}

// AlertPayload contains all information for an alert
type AlertPayload struct {
	ID           string
	Type         Type
	Message      string
	TokenAddress string
	TokenShort   string // Shortened for display
	Symbol       string
	PairURL      string
	PriceUSD     float64
	LiquidityUSD float64
	Volume24hUSD float64
	RiskScore    int
	RiskLevel    string
	Threats      []string
	Timestamp    time.Time
	Environment  string
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, payload *AlertPayload) error
}

// ShortAddress renders an address as its first 6 and last 4 characters
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

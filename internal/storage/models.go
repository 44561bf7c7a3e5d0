package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/risk"
	"gorm.io/gorm"
)

// Assessment stores one risk evaluation of a token
type Assessment struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Source       string  `gorm:"size:32;not null;index" json:"source"` // api or monitor
	TokenAddress string  `gorm:"size:128;not null;index" json:"tokenAddress"`
	Symbol       string  `gorm:"size:64" json:"symbol"`
	RiskScore    int     `gorm:"not null;index" json:"riskScore"`
	RiskLevel    string  `gorm:"size:16;not null;index" json:"riskLevel"`
	Threats      string  `gorm:"type:text" json:"threats"` // JSON array of findings
	LiquidityUSD float64 `gorm:"type:decimal(24,6);not null;default:0" json:"liquidityUsd"`
	MarketCapUSD float64 `gorm:"type:decimal(24,6);not null;default:0" json:"marketCapUsd"`
	Volume24hUSD float64 `gorm:"type:decimal(24,6);not null;default:0" json:"volume24hUsd"`
	CreatedTS    int64   `gorm:"not null;index" json:"createdTs"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// Alert stores alerts produced by the monitor
type Alert struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertID      string `gorm:"size:36;not null;uniqueIndex" json:"alertId"`
	AlertType    string `gorm:"size:16;not null;index" json:"type"`
	TokenAddress string `gorm:"size:128;not null;index" json:"tokenAddress"`
	Symbol       string `gorm:"size:64" json:"symbol"`
	Message      string `gorm:"size:512;not null" json:"message"`
	RiskScore    int    `gorm:"not null" json:"riskScore"`
	RiskLevel    string `gorm:"size:16;not null" json:"riskLevel"`
	Threats      string `gorm:"type:text" json:"threats"` // newline separated descriptions
	CreatedTS    int64  `gorm:"not null;index" json:"createdTs"`
}

func (Alert) TableName() string {
	return "alerts"
}

// NewAssessment converts an engine result into a row
func NewAssessment(source string, snap risk.TokenSnapshot, a risk.RiskAssessment, at time.Time) *Assessment {
	threats, err := json.Marshal(a.Threats)
	if err != nil {
		threats = []byte("[]")
	}
	return &Assessment{
		Source:       source,
		TokenAddress: snap.Address,
		Symbol:       snap.Symbol,
		RiskScore:    a.RiskScore,
		RiskLevel:    string(a.RiskLevel),
		Threats:      string(threats),
		LiquidityUSD: snap.LiquidityUSD,
		MarketCapUSD: snap.MarketCapUSD,
		Volume24hUSD: snap.Volume24hUSD,
		CreatedTS:    at.Unix(),
	}
}

// NewAlert converts a sent alert into a row
func NewAlert(p *alerts.AlertPayload) *Alert {
	return &Alert{
		AlertID:      p.ID,
		AlertType:    string(p.Type),
		TokenAddress: p.TokenAddress,
		Symbol:       p.Symbol,
		Message:      p.Message,
		RiskScore:    p.RiskScore,
		RiskLevel:    p.RiskLevel,
		Threats:      strings.Join(p.Threats, "\n"),
		CreatedTS:    p.Timestamp.Unix(),
	}
}

// BeforeCreate hook for timestamps
func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}

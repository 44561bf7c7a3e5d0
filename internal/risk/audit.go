package risk

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// CheckStatus is the outcome of one audit check
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckWarning CheckStatus = "warning"
	CheckFail    CheckStatus = "fail"
)

// AuditFacts are the pair facts the contract audit reads
type AuditFacts struct {
	ChainID      string
	LiquidityUSD float64
	FdvUSD       float64
	Buys24h      int
	Sells24h     int
	HasWebsites  bool
}

// AuditCheck is one line of the audit report
type AuditCheck struct {
	Name        string      `json:"name"`
	Status      CheckStatus `json:"status"`
	Description string      `json:"description"`
}

// AuditReport lists every check and the share that passed
type AuditReport struct {
	OverallScore    int          `json:"overallScore"`
	Vulnerabilities []AuditCheck `json:"vulnerabilities"`
}

// Minimum liquidity for the locked-liquidity check
const auditLockedLiquidityUSD = 10000

// Audit runs the contract checklist over pair facts
func Audit(f AuditFacts) AuditReport {
	liquidity := nonNegative(f.LiquidityUSD)
	fdv := nonNegative(f.FdvUSD)
	total := f.Buys24h + f.Sells24h

	ratioPct := 0.0
	if fdv > 0 {
		ratioPct = liquidity / fdv * 100
	}

	checks := []AuditCheck{
		{
			Name:        "Ownership Renounced",
			Status:      passOr(f.HasWebsites, CheckWarning),
			Description: "Contract ownership status on Solana",
		},
		{
			Name:        "Liquidity Locked",
			Status:      passOr(liquidity > auditLockedLiquidityUSD, CheckFail),
			Description: fmt.Sprintf("Current liquidity: $%s", humanize.Commaf(math.Round(liquidity*100)/100)),
		},
		{
			Name:        "No Mint Function",
			Status:      CheckPass,
			Description: "SPL token standard - no arbitrary minting",
		},
		{
			Name:        "Trading Active",
			Status:      passOr(total > 10, CheckWarning),
			Description: fmt.Sprintf("%d transactions in last 24h", total),
		},
		{
			Name:        "Honeypot Detection",
			Status:      passOr(f.Sells24h > 0, CheckFail),
			Description: fmt.Sprintf("%d sell transactions detected", f.Sells24h),
		},
		{
			Name:        "Liquidity Ratio",
			Status:      passOr(fdv > 0 && liquidity/fdv > 0.05, CheckWarning),
			Description: fmt.Sprintf("Liquidity/FDV ratio: %.2f%%", ratioPct),
		},
		{
			Name:        "Contract Verified",
			Status:      passOr(f.ChainID == "solana", CheckWarning),
			Description: "Token verified on Solana blockchain",
		},
		{
			Name:        "Buy/Sell Balance",
			Status:      passOr(float64(f.Buys24h) > float64(f.Sells24h)*0.5, CheckWarning),
			Description: fmt.Sprintf("%d buys vs %d sells", f.Buys24h, f.Sells24h),
		},
	}

	passed := 0
	for _, c := range checks {
		if c.Status == CheckPass {
			passed++
		}
	}

	return AuditReport{
		OverallScore:    int(math.Round(float64(passed) / float64(len(checks)) * 100)),
		Vulnerabilities: checks,
	}
}

func passOr(ok bool, otherwise CheckStatus) CheckStatus {
	if ok {
		return CheckPass
	}
	return otherwise
}

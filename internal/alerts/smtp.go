package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// SMTPSender sends alerts via email
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, user, password, from string, to []string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
	}
}

// Send sends the alert via email
func (s *SMTPSender) Send(ctx context.Context, payload *AlertPayload) error {
	if len(s.to) == 0 {
		return fmt.Errorf("send email: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, s.to, []byte(s.buildMessage(payload))); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (s *SMTPSender) buildMessage(payload *AlertPayload) string {
	subject := fmt.Sprintf("[%s] %s risk %d/100: %s",
		strings.ToUpper(string(payload.Type)), payload.Symbol, payload.RiskScore, payload.TokenShort)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(buildEmailBody(payload))
	return b.String()
}

func buildEmailBody(payload *AlertPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WARD AI ALERT - %s\n", strings.ToUpper(string(payload.Type)))
	b.WriteString("═══════════════════════════════════════\n\n")
	fmt.Fprintf(&b, "%s\n\n", payload.Message)

	b.WriteString("TOKEN\n")
	b.WriteString("─────────────────────────────────────\n")
	fmt.Fprintf(&b, "Symbol:         %s\n", payload.Symbol)
	fmt.Fprintf(&b, "Address:        %s\n", payload.TokenAddress)
	fmt.Fprintf(&b, "Price:          $%g\n", payload.PriceUSD)
	fmt.Fprintf(&b, "Liquidity:      $%s\n", humanize.Commaf(roundCents(payload.LiquidityUSD)))
	fmt.Fprintf(&b, "24h Volume:     $%s\n", humanize.Commaf(roundCents(payload.Volume24hUSD)))
	if payload.PairURL != "" {
		fmt.Fprintf(&b, "Chart:          %s\n", payload.PairURL)
	}
	b.WriteString("\n")

	b.WriteString("RISK\n")
	b.WriteString("─────────────────────────────────────\n")
	fmt.Fprintf(&b, "Score:          %d/100 (%s)\n", payload.RiskScore, payload.RiskLevel)
	for _, threat := range payload.Threats {
		fmt.Fprintf(&b, "  - %s\n", threat)
	}
	b.WriteString("\n")

	b.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&b, "Alert ID: %s\n", payload.ID)
	fmt.Fprintf(&b, "Environment: %s\n", payload.Environment)
	fmt.Fprintf(&b, "Generated: %s\n", payload.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString("\nNote: risk scores are heuristic and not financial advice.\n")

	return b.String()
}

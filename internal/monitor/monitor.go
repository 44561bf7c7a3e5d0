package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/cooldown"
	"github.com/liamashdown/wardai/internal/dexscreener"
	"github.com/liamashdown/wardai/internal/metrics"
	"github.com/liamashdown/wardai/internal/risk"
	"github.com/liamashdown/wardai/internal/storage"
	"github.com/sirupsen/logrus"
)

// PairSource is the market data the monitor reads
type PairSource interface {
	TokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
	TopBoosts(ctx context.Context) ([]dexscreener.Boost, error)
}

// Recorder persists monitor output. It is optional.
type Recorder interface {
	InsertAssessment(ctx context.Context, a *storage.Assessment) error
	InsertAlert(ctx context.Context, alert *storage.Alert) (int64, error)
}

// Monitor polls boosted tokens and turns them into feed alerts
type Monitor struct {
	cfg         *config.Config
	source      PairSource
	cooldowns   cooldown.Store
	engine      *risk.Engine
	alertSender alerts.Sender
	recorder    Recorder
	feed        *Feed
	workerPool  chan struct{}
	log         *logrus.Logger
	now         func() time.Time
}

// New creates a monitor. recorder may be nil.
func New(
	cfg *config.Config,
	source PairSource,
	cooldowns cooldown.Store,
	engine *risk.Engine,
	alertSender alerts.Sender,
	recorder Recorder,
	log *logrus.Logger,
) *Monitor {
	workers := cfg.MonitorWorkers
	if workers < 1 {
		workers = 1
	}
	workerPool := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		workerPool <- struct{}{}
	}

	return &Monitor{
		cfg:         cfg,
		source:      source,
		cooldowns:   cooldowns,
		engine:      engine,
		alertSender: alertSender,
		recorder:    recorder,
		feed:        NewFeed(cfg.FeedSize),
		workerPool:  workerPool,
		log:         log,
		now:         time.Now,
	}
}

// Feed returns the current live-alerts feed
func (m *Monitor) Feed() []FeedAlert {
	return m.feed.Snapshot()
}

// Run polls on every interval tick until ctx is done
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.pollAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollAndLog(ctx)
		}
	}
}

func (m *Monitor) pollAndLog(ctx context.Context) {
	start := time.Now()
	batch, err := m.Poll(ctx)
	metrics.RecordMonitorPoll(time.Since(start), err)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.log.WithError(err).Warn("Monitor poll failed")
		}
		return
	}
	m.log.WithFields(logrus.Fields{
		"alerts":      len(batch),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Monitor poll completed")
}

// Poll runs one monitoring round and returns the alerts added to the feed.
// An upstream failure leaves the feed untouched.
func (m *Monitor) Poll(ctx context.Context) ([]FeedAlert, error) {
	now := m.now()

	if evicted, err := m.cooldowns.Evict(ctx, now.Add(-m.cfg.AlertCooldown)); err != nil {
		m.log.WithError(err).Warn("Failed to evict cooldowns")
	} else if evicted > 0 {
		m.log.WithField("evicted", evicted).Debug("Evicted expired cooldowns")
	}

	boosts, err := m.source.TopBoosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top boosts: %w", err)
	}

	addresses := m.candidates(boosts)
	m.log.WithField("count", len(addresses)).Debug("Evaluating boosted tokens")

	results := make([]*FeedAlert, len(addresses))
	var wg sync.WaitGroup
	for i, addr := range addresses {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()

			select {
			case <-m.workerPool:
			case <-ctx.Done():
				return
			}
			defer func() { m.workerPool <- struct{}{} }()

			alert, err := m.evaluate(ctx, addr)
			if err != nil {
				m.log.WithError(err).WithField("token", addr).Debug("Failed to evaluate token")
				return
			}
			results[i] = alert
		}(i, addr)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]FeedAlert, 0, m.cfg.FeedSize)
	for _, r := range results {
		if r == nil {
			continue
		}
		if len(batch) == m.cfg.FeedSize {
			break
		}
		batch = append(batch, *r)
	}
	m.feed.Push(batch)

	return batch, nil
}

// candidates keeps boosted tokens on the configured chain, in upstream order,
// up to MonitorMaxTokens without duplicates.
func (m *Monitor) candidates(boosts []dexscreener.Boost) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range boosts {
		if len(out) == m.cfg.MonitorMaxTokens {
			break
		}
		if b.ChainID != m.cfg.ChainID || b.TokenAddress == "" || seen[b.TokenAddress] {
			continue
		}
		seen[b.TokenAddress] = true
		out = append(out, b.TokenAddress)
	}
	return out
}

// evaluate returns nil without error when the token is cooling down
func (m *Monitor) evaluate(ctx context.Context, addr string) (*FeedAlert, error) {
	active, err := cooldown.Active(ctx, m.cooldowns, addr, m.cfg.AlertCooldown, m.now())
	if err != nil {
		metrics.TokensEvaluated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check cooldown: %w", err)
	}
	if active {
		metrics.TokensEvaluated.WithLabelValues("cooldown").Inc()
		metrics.AlertsSuppressed.Inc()
		return nil, nil
	}

	pairs, err := m.source.TokenPairs(ctx, addr)
	if errors.Is(err, dexscreener.ErrNotFound) {
		metrics.TokensEvaluated.WithLabelValues("no_pairs").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.TokensEvaluated.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch pairs: %w", err)
	}
	pair, ok := dexscreener.PairForToken(pairs, addr)
	if !ok {
		metrics.TokensEvaluated.WithLabelValues("no_pairs").Inc()
		return nil, nil
	}

	now := m.now()
	// Another poll may have alerted on this token since the check above
	claimed, err := m.cooldowns.Claim(ctx, addr, now, m.cfg.AlertCooldown)
	if err != nil {
		m.log.WithError(err).WithField("token", addr).Warn("Failed to store cooldown")
	} else if !claimed {
		metrics.TokensEvaluated.WithLabelValues("cooldown").Inc()
		metrics.AlertsSuppressed.Inc()
		return nil, nil
	}

	snap := dexscreener.SnapshotFor(pair, addr, now)
	assessment := m.engine.Assess(snap)
	metrics.RecordAssessment("monitor", string(assessment.RiskLevel), assessment.RiskScore, severities(assessment))

	alertType, message := Classify(pair)
	metrics.AlertsTriggered.WithLabelValues(string(alertType)).Inc()
	metrics.TokensEvaluated.WithLabelValues("alerted").Inc()

	payload := &alerts.AlertPayload{
		ID:           uuid.NewString(),
		Type:         alertType,
		Message:      message,
		TokenAddress: addr,
		TokenShort:   alerts.ShortAddress(addr),
		Symbol:       snap.Symbol,
		PairURL:      pair.URL,
		LiquidityUSD: snap.LiquidityUSD,
		Volume24hUSD: snap.Volume24hUSD,
		RiskScore:    assessment.RiskScore,
		RiskLevel:    string(assessment.RiskLevel),
		Threats:      descriptions(assessment),
		Timestamp:    now,
		Environment:  m.cfg.Environment,
	}
	if price, err := parsePrice(pair.PriceUSD); err == nil {
		payload.PriceUSD = price
	}

	m.record(ctx, snap, assessment, payload)

	if alertType.Notify() {
		err := m.alertSender.Send(ctx, payload)
		metrics.RecordAlertSend(err)
		if err != nil {
			m.log.WithError(err).WithField("token", payload.TokenShort).Error("Failed to send alert")
		}
	}

	return &FeedAlert{
		ID:           payload.ID,
		Type:         alertType,
		Message:      message,
		Token:        payload.TokenShort,
		TokenAddress: payload.TokenAddress,
		TokenName:    payload.Symbol,
		Time:         "just now",
		RiskScore:    payload.RiskScore,
		RiskLevel:    payload.RiskLevel,
		Timestamp:    now,
	}, nil
}

func (m *Monitor) record(ctx context.Context, snap risk.TokenSnapshot, a risk.RiskAssessment, payload *alerts.AlertPayload) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.InsertAssessment(ctx, storage.NewAssessment("monitor", snap, a, payload.Timestamp)); err != nil {
		m.log.WithError(err).Warn("Failed to record assessment")
	}
	if !payload.Type.Notify() {
		return
	}
	if _, err := m.recorder.InsertAlert(ctx, storage.NewAlert(payload)); err != nil {
		m.log.WithError(err).Warn("Failed to record alert")
	}
}

func severities(a risk.RiskAssessment) []string {
	out := make([]string, len(a.Threats))
	for i, t := range a.Threats {
		out[i] = string(t.Severity)
	}
	return out
}

func descriptions(a risk.RiskAssessment) []string {
	out := make([]string, len(a.Threats))
	for i, t := range a.Threats {
		out[i] = t.Description
	}
	return out
}

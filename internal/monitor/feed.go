package monitor

import (
	"sync"
	"time"

	"github.com/liamashdown/wardai/internal/alerts"
)

// FeedAlert is one entry of the live-alerts feed
type FeedAlert struct {
	ID           string      `json:"id"`
	Type         alerts.Type `json:"type"`
	Message      string      `json:"message"`
	Token        string      `json:"token"`
	TokenAddress string      `json:"tokenAddress"`
	TokenName    string      `json:"tokenName"`
	Time         string      `json:"time"`
	RiskScore    int         `json:"riskScore"`
	RiskLevel    string      `json:"riskLevel"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Feed keeps the newest alerts, newest first, up to a fixed size
type Feed struct {
	mu    sync.RWMutex
	size  int
	items []FeedAlert
}

// NewFeed creates a feed holding at most size alerts
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{size: size}
}

// Push prepends alerts (given newest-relevant first) and drops the overflow
func (f *Feed) Push(batch []FeedAlert) {
	if len(batch) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	merged := make([]FeedAlert, 0, len(batch)+len(f.items))
	merged = append(merged, batch...)
	merged = append(merged, f.items...)
	if len(merged) > f.size {
		merged = merged[:f.size]
	}
	f.items = merged
}

// Snapshot returns a copy of the current feed
func (f *Feed) Snapshot() []FeedAlert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]FeedAlert, len(f.items))
	copy(out, f.items)
	return out
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/cooldown"
	"github.com/liamashdown/wardai/internal/dexscreener"
	"github.com/liamashdown/wardai/internal/risk"
	"github.com/liamashdown/wardai/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	boosts    []dexscreener.Boost
	boostsErr error
	pairs     map[string][]dexscreener.Pair
	calls     map[string]int
}

func (f *fakeSource) TopBoosts(context.Context) ([]dexscreener.Boost, error) {
	return f.boosts, f.boostsErr
}

func (f *fakeSource) TokenPairs(_ context.Context, addr string) ([]dexscreener.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[addr]++
	pairs, ok := f.pairs[addr]
	if !ok {
		return nil, dexscreener.ErrNotFound
	}
	return pairs, nil
}

type recordingSender struct {
	mu       sync.Mutex
	payloads []*alerts.AlertPayload
}

func (s *recordingSender) Send(_ context.Context, p *alerts.AlertPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return nil
}

type memRecorder struct {
	mu          sync.Mutex
	assessments int
	alerts      []*storage.Alert
}

func (r *memRecorder) InsertAssessment(context.Context, *storage.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments++
	return nil
}

func (r *memRecorder) InsertAlert(_ context.Context, a *storage.Alert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return int64(len(r.alerts)), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		ChainID:          "solana",
		MonitorMaxTokens: 10,
		MonitorWorkers:   3,
		AlertCooldown:    2 * time.Minute,
		FeedSize:         3,
	}
}

func pairFor(addr string, change, liquidity, volume float64, buys, sells int) dexscreener.Pair {
	return dexscreener.Pair{
		ChainID:     "solana",
		BaseToken:   dexscreener.Token{Address: addr, Symbol: "SYM" + addr},
		PriceUSD:    "0.01",
		PriceChange: dexscreener.Windows{H24: change},
		Volume:      dexscreener.Windows{H24: volume},
		Liquidity:   &dexscreener.Liquidity{USD: liquidity},
		Txns:        dexscreener.Txns{H24: dexscreener.TxnCount{Buys: buys, Sells: sells}},
		MarketCap:   1_000_000,
	}
}

func newTestMonitor(src PairSource, store cooldown.Store, sender alerts.Sender, rec Recorder) *Monitor {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(testConfig(), src, store, risk.NewEngine(risk.DefaultRules()), sender, rec, log)
}

func TestPollClassifiesAndCapsFeed(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{
			{ChainID: "solana", TokenAddress: "A"},
			{ChainID: "base", TokenAddress: "X"},
			{ChainID: "solana", TokenAddress: "B"},
			{ChainID: "solana", TokenAddress: "C"},
			{ChainID: "solana", TokenAddress: "D"},
		},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 200, 50000, 10000, 10, 10)},
			"B": {pairFor("B", 90, 50000, 10000, 10, 10)},
			"C": {pairFor("C", 2, 50000, 10000, 10, 10)},
			"D": {pairFor("D", 2, 50000, 10000, 10, 10)},
			"X": {pairFor("X", 500, 50000, 10000, 10, 10)},
		},
	}
	sender := &recordingSender{}
	rec := &memRecorder{}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), sender, rec)

	batch, err := m.Poll(context.Background())
	require.NoError(t, err)

	require.Len(t, batch, 3, "feed is capped per poll")
	assert.Equal(t, "A", batch[0].TokenAddress)
	assert.Equal(t, alerts.TypeCritical, batch[0].Type)
	assert.Equal(t, "B", batch[1].TokenAddress)
	assert.Equal(t, alerts.TypeWarning, batch[1].Type)
	assert.Equal(t, alerts.TypeInfo, batch[2].Type)
	assert.Equal(t, "just now", batch[0].Time)
	assert.NotEmpty(t, batch[0].ID)

	assert.Zero(t, src.calls["X"], "other chains are ignored")
	assert.Equal(t, batch, m.Feed())

	assert.Len(t, sender.payloads, 2, "only critical and warning alerts are sent")
	assert.Equal(t, 4, rec.assessments)
	assert.Len(t, rec.alerts, 2)
}

func TestPollSuppressesTokensInCooldown(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{{ChainID: "solana", TokenAddress: "A"}},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 200, 50000, 10000, 10, 10)},
		},
	}
	sender := &recordingSender{}
	store := cooldown.NewMemoryStore()
	m := newTestMonitor(src, store, sender, nil)

	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	first, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	now = now.Add(time.Minute)
	second, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 1, src.calls["A"], "cooling tokens are not fetched")
	assert.Len(t, m.Feed(), 1, "feed keeps earlier alerts")

	now = now.Add(2 * time.Minute)
	third, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 1, "cooldown expired")
	assert.Len(t, sender.payloads, 2)
	at, ok, err := store.Get(context.Background(), "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(now), "cooldown restarted by the third poll")
}

func TestPollRespectsMaxTokens(t *testing.T) {
	src := &fakeSource{pairs: map[string][]dexscreener.Pair{}}
	for i := 0; i < 15; i++ {
		addr := fmt.Sprintf("T%02d", i)
		src.boosts = append(src.boosts, dexscreener.Boost{ChainID: "solana", TokenAddress: addr})
		src.pairs[addr] = []dexscreener.Pair{pairFor(addr, 1, 50000, 10000, 10, 10)}
	}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), &recordingSender{}, nil)

	_, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, src.calls, 10)
	assert.Zero(t, src.calls["T10"])
}

func TestPollSkipsTokensWithoutPairs(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{
			{ChainID: "solana", TokenAddress: "missing"},
			{ChainID: "solana", TokenAddress: "A"},
		},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 1, 50000, 10000, 10, 10)},
		},
	}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), &recordingSender{}, nil)

	batch, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "A", batch[0].TokenAddress)
}

func TestPollUpstreamFailureKeepsFeed(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{{ChainID: "solana", TokenAddress: "A"}},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 1, 50000, 10000, 10, 10)},
		},
	}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), &recordingSender{}, nil)

	_, err := m.Poll(context.Background())
	require.NoError(t, err)

	src.boostsErr = dexscreener.ErrRateLimited
	_, err = m.Poll(context.Background())
	assert.True(t, errors.Is(err, dexscreener.ErrRateLimited))
	assert.Len(t, m.Feed(), 1)
}

func TestTrending(t *testing.T) {
	thin := pairFor("thin", 1, 999, 900000, 1, 1)
	src := &fakeSource{
		boosts: []dexscreener.Boost{
			{ChainID: "solana", TokenAddress: "low", TotalAmount: 50},
			{ChainID: "solana", TokenAddress: "thin"},
			{ChainID: "base", TokenAddress: "other"},
			{ChainID: "solana", TokenAddress: "high", TotalAmount: 10},
			{ChainID: "solana", TokenAddress: "missing"},
		},
		pairs: map[string][]dexscreener.Pair{
			"low":   {pairFor("low", 1, 5000, 100, 1, 1)},
			"thin":  {thin},
			"other": {pairFor("other", 1, 5000, 999999, 1, 1)},
			"high":  {pairFor("high", 1, 5000, 200, 3, 4)},
		},
	}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), &recordingSender{}, nil)

	tokens, err := m.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "high", tokens[0].Address)
	assert.Equal(t, 7, tokens[0].Txns24h)
	assert.Equal(t, "https://dexscreener.com/solana/high", tokens[0].URL)
	assert.Equal(t, "low", tokens[1].Address)
	assert.Equal(t, 50.0, tokens[1].BoostAmount)
}

func TestTrendingCapsAtTen(t *testing.T) {
	src := &fakeSource{pairs: map[string][]dexscreener.Pair{}}
	for i := 0; i < 25; i++ {
		addr := fmt.Sprintf("T%02d", i)
		src.boosts = append(src.boosts, dexscreener.Boost{ChainID: "solana", TokenAddress: addr})
		src.pairs[addr] = []dexscreener.Pair{pairFor(addr, 1, 5000, float64(i), 1, 1)}
	}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), &recordingSender{}, nil)

	tokens, err := m.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 10)
	assert.Equal(t, 19.0, tokens[0].Volume24h, "only the first 20 boosts are looked up")
	assert.Len(t, src.calls, 20)
}

func TestFeedPush(t *testing.T) {
	f := NewFeed(3)
	f.Push([]FeedAlert{{ID: "1"}, {ID: "2"}})
	f.Push(nil)
	f.Push([]FeedAlert{{ID: "3"}, {ID: "4"}})

	got := f.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
	assert.Equal(t, "1", got[2].ID)
}

// staleReadStore misses on every Get, as a poll racing another would
type staleReadStore struct {
	*cooldown.MemoryStore
}

func (staleReadStore) Get(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func TestPollClaimsCooldownBeforeSending(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{{ChainID: "solana", TokenAddress: "A"}},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 200, 50000, 10000, 10, 10)},
		},
	}
	sender := &recordingSender{}
	m := newTestMonitor(src, staleReadStore{cooldown.NewMemoryStore()}, sender, nil)

	first, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second, "claim already held")
	assert.Len(t, sender.payloads, 1)
}

func TestConcurrentPollsSendOnce(t *testing.T) {
	src := &fakeSource{
		boosts: []dexscreener.Boost{{ChainID: "solana", TokenAddress: "A"}},
		pairs: map[string][]dexscreener.Pair{
			"A": {pairFor("A", 200, 50000, 10000, 10, 10)},
		},
	}
	sender := &recordingSender{}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), sender, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Poll(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, sender.payloads, 1)
}

func TestPollKeysAlertsByBoostedAddress(t *testing.T) {
	quoteSide := pairFor("WETH", 200, 900000, 10000, 10, 10)
	quoteSide.QuoteToken = dexscreener.Token{Address: "0xabc", Symbol: "ABC"}
	baseSide := pairFor("0xAbC", 200, 50000, 10000, 10, 10)

	src := &fakeSource{
		boosts: []dexscreener.Boost{{ChainID: "solana", TokenAddress: "0xabc"}},
		pairs:  map[string][]dexscreener.Pair{"0xabc": {quoteSide, baseSide}},
	}
	sender := &recordingSender{}
	m := newTestMonitor(src, cooldown.NewMemoryStore(), sender, nil)

	batch, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "0xabc", batch[0].TokenAddress)
	assert.Equal(t, "SYM0xAbC", batch[0].TokenName, "base-side pair preferred over deeper quote-side pair")
	require.Len(t, sender.payloads, 1)
	assert.Equal(t, "0xabc", sender.payloads[0].TokenAddress)
}

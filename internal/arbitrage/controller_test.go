package arbitrage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/internal/model"
)

type stubDetector struct {
	mu    sync.Mutex
	opps  []model.Opportunity
	calls int
}

func (s *stubDetector) DetectOnce(context.Context) []model.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.opps
}

func (s *stubDetector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryTradeWriter struct {
	mu     sync.Mutex
	trades []model.Trade
	err    error
}

func (m *memoryTradeWriter) LogTrade(_ context.Context, trade model.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.trades = append(m.trades, trade)
	return nil
}

func (m *memoryTradeWriter) logged() []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Trade(nil), m.trades...)
}

func opportunity(net float64) model.Opportunity {
	return model.Opportunity{
		ID:        "op-1",
		Symbol:    "BTC/USDT",
		BuyVenue:  "binance",
		SellVenue: "kraken",
		BuyPrice:  100,
		SellPrice: 110,
		Amount:    1,
		NetProfit: net,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestController_Lifecycle(t *testing.T) {
	detector := &stubDetector{}
	writer := &memoryTradeWriter{}
	c := NewController(detector, stubThresholdSource{threshold: 0.05}, writer, 5*time.Millisecond, testLogger())

	assert.Equal(t, StatusStopped, c.Status())

	c.Start()
	assert.Equal(t, StatusRunning, c.Status())
	waitFor(t, func() bool { return detector.callCount() >= 2 })

	c.Stop()
	assert.Equal(t, StatusStopped, c.Status())

	// no cycles run after Stop has returned
	settled := detector.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, detector.callCount())
}

func TestController_IdempotentStartStop(t *testing.T) {
	detector := &stubDetector{}
	writer := &memoryTradeWriter{}
	c := NewController(detector, stubThresholdSource{threshold: 0.05}, writer, time.Hour, testLogger())

	// double Stop on a stopped controller changes nothing
	c.Stop()
	c.Stop()
	assert.Equal(t, StatusStopped, c.Status())

	c.Start()
	c.Start()
	waitFor(t, func() bool { return detector.callCount() >= 1 })
	// one worker: the hour-long interval means exactly one cycle ran
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, detector.callCount())

	c.Stop()
	assert.Equal(t, StatusStopped, c.Status())
}

func TestController_PersistsAcceptedTrades(t *testing.T) {
	detector := &stubDetector{opps: []model.Opportunity{
		opportunity(7.5), // accepted: above 5% of 100
		opportunity(2.0), // below threshold
		opportunity(-20), // beyond max loss
	}}
	writer := &memoryTradeWriter{}
	c := NewController(detector, stubThresholdSource{threshold: 0.05}, writer, time.Hour, testLogger())

	c.Start()
	waitFor(t, func() bool { return len(writer.logged()) >= 1 })
	c.Stop()

	trades := writer.logged()
	require.Len(t, trades, 1)
	assert.Equal(t, 7.5, trades[0].NetProfit)
	assert.Equal(t, "op-1", trades[0].OpportunityID)
}

func TestController_SurvivesStoreFailures(t *testing.T) {
	detector := &stubDetector{opps: []model.Opportunity{opportunity(7.5)}}
	writer := &memoryTradeWriter{err: assert.AnError}
	c := NewController(detector, stubThresholdSource{threshold: 0.05}, writer, 5*time.Millisecond, testLogger())

	c.Start()
	waitFor(t, func() bool { return detector.callCount() >= 3 })
	c.Stop()

	// every cycle kept running despite the failing store
	assert.Empty(t, writer.logged())
	assert.Equal(t, StatusStopped, c.Status())
}

func TestController_ThresholdFailureFallsBackToDefault(t *testing.T) {
	// net 6.0 clears the 5% default threshold but not a stored 10%
	detector := &stubDetector{opps: []model.Opportunity{opportunity(6.0)}}
	writer := &memoryTradeWriter{}
	broken := stubThresholdSource{err: assert.AnError}
	c := NewController(detector, broken, writer, time.Hour, testLogger())

	c.Start()
	waitFor(t, func() bool { return len(writer.logged()) >= 1 })
	c.Stop()

	require.Len(t, writer.logged(), 1)
}

package arbitrage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arbiter/internal/model"
)

// OpportunitySource produces one detection cycle's worth of candidates.
type OpportunitySource interface {
	DetectOnce(ctx context.Context) []model.Opportunity
}

// TradeWriter appends accepted trades to the ledger.
type TradeWriter interface {
	LogTrade(ctx context.Context, trade model.Trade) error
}

// Status reports whether the run loop is active.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// Controller owns the polling run loop: detect, filter, persist, sleep.
// Exactly one worker runs at a time; Start on a running controller and Stop
// on a stopped one are no-ops. All lifecycle state lives behind the mutex,
// never in package globals.
type Controller struct {
	detector   OpportunitySource
	thresholds ThresholdSource
	trades     TradeWriter
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewController creates a stopped Controller polling at the given interval.
func NewController(detector OpportunitySource, thresholds ThresholdSource, trades TradeWriter, interval time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		detector:   detector,
		thresholds: thresholds,
		trades:     trades,
		interval:   interval,
		logger:     logger.With("component", "controller"),
	}
}

// Start launches the run loop. Calling Start while already running changes
// nothing; concurrent Starts spawn at most one worker.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.running = true
	go c.run(c.stopCh, c.doneCh)
	c.logger.Info("run loop started")
}

// Stop signals the run loop and blocks until it has exited, so no further
// persistence happens after Stop returns. Latency is bounded by one poll
// interval plus any in-flight store call. Stopping a stopped controller is
// a no-op. The lock is held across the join, so a concurrent Start cannot
// slip in a second worker while the old one drains.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	close(c.stopCh)
	<-c.doneCh
	c.running = false
	c.logger.Info("run loop stopped")
}

// Status reports the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return StatusRunning
	}
	return StatusStopped
}

// run is the worker loop. The stop signal is checked between cycles only;
// a cycle in progress always completes.
func (c *Controller) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		default:
		}

		c.runCycle(ctx)

		select {
		case <-stop:
			return
		case <-time.After(c.interval):
		}
	}
}

// runCycle performs one detect → filter → persist pass. The profit
// threshold is read once per cycle so every opportunity in the cycle is
// judged consistently, and so runtime threshold updates take effect on the
// next cycle. Store failures are per-trade: logged and skipped, never fatal
// to the loop.
func (c *Controller) runCycle(ctx context.Context) {
	opportunities := c.detector.DetectOnce(ctx)

	threshold := model.DefaultProfitThreshold
	if t, err := c.thresholds.GetProfitThreshold(ctx); err != nil {
		c.logger.Warn("using default profit threshold", "error", err)
	} else {
		threshold = t
	}
	c.logger.Info("detection cycle complete",
		"opportunities", len(opportunities), "profit_threshold", threshold)

	for _, opp := range opportunities {
		switch Evaluate(opp.NetProfit, opp.BuyPrice, threshold) {
		case RejectedLoss:
			c.logger.Warn("opportunity skipped: loss exceeds maximum",
				"symbol", opp.Symbol, "net_profit", opp.NetProfit, "buy_price", opp.BuyPrice)
		case RejectedBelowThreshold:
			c.logger.Debug("opportunity skipped: below profit threshold",
				"symbol", opp.Symbol, "net_profit", opp.NetProfit)
		case Accepted:
			if err := c.trades.LogTrade(ctx, model.TradeFromOpportunity(opp)); err != nil {
				c.logger.Error("failed to log trade",
					"opportunity_id", opp.ID, "error", err)
				continue
			}
			c.logger.Info("trade logged",
				"symbol", opp.Symbol,
				"buy_venue", opp.BuyVenue,
				"sell_venue", opp.SellVenue,
				"net_profit", opp.NetProfit)
		}
	}
}

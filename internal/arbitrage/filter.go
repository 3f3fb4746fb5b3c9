package arbitrage

// MaxLossFraction is the hard ceiling on acceptable loss relative to the buy
// price. A candidate losing more than this fraction is rejected no matter
// what the profit threshold says.
const MaxLossFraction = 0.10

// Decision is the risk filter's verdict on a candidate opportunity.
type Decision int

const (
	Accepted Decision = iota
	RejectedLoss
	RejectedBelowThreshold
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectedLoss:
		return "rejected_loss"
	case RejectedBelowThreshold:
		return "rejected_below_threshold"
	default:
		return "unknown"
	}
}

// Evaluate decides whether an opportunity is actionable. The loss check runs
// first: a net loss beyond MaxLossFraction of the buy price is rejected
// before the threshold is even considered. threshold is a fraction of the
// buy price the net profit must reach.
func Evaluate(netProfit, buyPrice, threshold float64) Decision {
	if netProfit < -(MaxLossFraction * buyPrice) {
		return RejectedLoss
	}
	if netProfit < buyPrice*threshold {
		return RejectedBelowThreshold
	}
	return Accepted
}

package arbitrage

// ComputeProfit calculates both gross and net profit for a candidate trade.
//
// Gross profit is the raw price gap times the traded amount, independent of
// any costs. Net profit subtracts both trading fees, the withdrawal fee,
// slippage on each leg (as a rate on notional value) and the estimated price
// drift over the execution latency. A negative net profit is a valid
// unprofitable outcome, not an error. Rates are expected in [0, 1); the
// function does not clamp, callers validate.
func ComputeProfit(buyPrice, sellPrice, amount, buyFee, sellFee, withdrawalFee, buySlippage, sellSlippage, priceDrift float64) (gross, net float64) {
	gross = (sellPrice - buyPrice) * amount

	totalBuyCost := buyPrice*amount + buyPrice*amount*buyFee
	totalSellRevenue := sellPrice*amount - sellPrice*amount*sellFee

	net = totalSellRevenue - totalBuyCost - withdrawalFee
	net -= buyPrice*amount*buySlippage + sellPrice*amount*sellSlippage
	net -= priceDrift * amount

	return gross, net
}

// ProfitPercentage expresses gross profit as a percentage of the buy price.
// Returns 0 when buyPrice is 0 to guard the division.
func ProfitPercentage(gross, buyPrice float64) float64 {
	if buyPrice == 0 {
		return 0
	}
	return gross / buyPrice * 100
}

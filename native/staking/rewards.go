package staking

import "math/big"

// rewardAccrued computes the simple-interest reward accrued by a principal at
// the given annual yield over elapsed seconds.
//
// The annual reward is stepped down to a per-second rate one time unit at a
// time, truncating at every division, and only then multiplied by the elapsed
// seconds. The stepping order is load-bearing: collapsing it into the single
// division principal*yield*elapsed/(100*365*24*60*60) produces different
// payouts for small principals, and downstream balances are reconciled against
// the stepped form.
func rewardAccrued(principal *big.Int, yieldPercent uint64, elapsedSeconds int64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || elapsedSeconds <= 0 || yieldPercent == 0 {
		return big.NewInt(0)
	}
	rate := new(big.Int).Mul(principal, new(big.Int).SetUint64(yieldPercent))
	rate.Div(rate, big.NewInt(100)) // reward per year
	rate.Div(rate, big.NewInt(365)) // per day
	rate.Div(rate, big.NewInt(24))  // per hour
	rate.Div(rate, big.NewInt(60))  // per minute
	rate.Div(rate, big.NewInt(60))  // per second
	return rate.Mul(rate, big.NewInt(elapsedSeconds))
}

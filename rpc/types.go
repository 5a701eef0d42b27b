package rpc

import (
	"stakevault/crypto"
	"stakevault/native/staking"
)

// DepositResponse is the wire form of a ledger entry.
type DepositResponse struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	Amount    string `json:"amount"`
	TermDays  uint64 `json:"termDays"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	Ended     bool   `json:"ended"`
}

func depositResponse(dep *staking.Deposit) DepositResponse {
	amount := "0"
	if dep.Amount != nil {
		amount = dep.Amount.String()
	}
	return DepositResponse{
		ID:        dep.ID,
		Owner:     crypto.MustNewAddress(dep.Owner[:]).String(),
		Amount:    amount,
		TermDays:  dep.TermDays,
		StartTime: dep.StartTime,
		EndTime:   dep.EndTime,
		Ended:     dep.Ended,
	}
}

// TermsResponse carries both parallel term table arrays.
type TermsResponse struct {
	DurationDays  [staking.TermCount]uint64 `json:"durationDays"`
	YieldPercents [staking.TermCount]uint64 `json:"yieldPercents"`
}

// UnstakeResponse reports the one-time payout of a finalized deposit.
type UnstakeResponse struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	TotalPaid string `json:"totalPaid"`
}

// PreviewRewardsResponse quotes the accrued reward at a point in time.
type PreviewRewardsResponse struct {
	ID        uint64 `json:"id"`
	Pending   string `json:"pending"`
	Timestamp int64  `json:"timestamp"`
}

// BalanceResponse reports a token balance for an address.
type BalanceResponse struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

package events

import (
	"math/big"
	"strconv"

	"stakevault/core/types"
	"stakevault/crypto"
)

const (
	// TypeStakingStaked is emitted when principal enters vault custody and a
	// deposit is opened.
	TypeStakingStaked = "staking.staked"
	// TypeStakingUnstaked is emitted when a deposit is finalized and paid out.
	TypeStakingUnstaked = "staking.unstaked"
	// TypeStakingTermsUpdated is emitted when the administrator replaces term
	// table slots.
	TypeStakingTermsUpdated = "staking.termsUpdated"
)

// StakingStaked captures a newly opened deposit.
type StakingStaked struct {
	ID       uint64
	Owner    [20]byte
	Amount   *big.Int
	TermDays uint64
}

// EventType satisfies the Event interface.
func (StakingStaked) EventType() string { return TypeStakingStaked }

// Event converts the structured payload into a broadcastable event.
func (e StakingStaked) Event() *types.Event {
	attrs := map[string]string{
		"id":       strconv.FormatUint(e.ID, 10),
		"amount":   formatAmount(e.Amount),
		"termDays": strconv.FormatUint(e.TermDays, 10),
	}
	if !zeroAddress(e.Owner) {
		attrs["owner"] = crypto.MustNewAddress(e.Owner[:]).String()
	}
	return &types.Event{Type: TypeStakingStaked, Attributes: attrs}
}

// StakingUnstaked captures the one-time finalization payout of a deposit.
type StakingUnstaked struct {
	ID        uint64
	Owner     [20]byte
	TotalPaid *big.Int
}

// EventType satisfies the Event interface.
func (StakingUnstaked) EventType() string { return TypeStakingUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e StakingUnstaked) Event() *types.Event {
	attrs := map[string]string{
		"id":        strconv.FormatUint(e.ID, 10),
		"totalPaid": formatAmount(e.TotalPaid),
	}
	if !zeroAddress(e.Owner) {
		attrs["owner"] = crypto.MustNewAddress(e.Owner[:]).String()
	}
	return &types.Event{Type: TypeStakingUnstaked, Attributes: attrs}
}

// StakingTermsUpdated records an administrative replacement of term table
// slots. Field identifies which of the parallel arrays changed.
type StakingTermsUpdated struct {
	Field  string
	Values [3]uint64
}

// EventType satisfies the Event interface.
func (StakingTermsUpdated) EventType() string { return TypeStakingTermsUpdated }

// Event converts the structured payload into a broadcastable event.
func (e StakingTermsUpdated) Event() *types.Event {
	attrs := map[string]string{"field": e.Field}
	for i, v := range e.Values {
		attrs["slot"+strconv.Itoa(i)] = strconv.FormatUint(v, 10)
	}
	return &types.Event{Type: TypeStakingTermsUpdated, Attributes: attrs}
}

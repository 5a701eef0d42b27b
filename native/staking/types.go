package staking

import (
	"fmt"
	"math/big"
	"strings"
)

// Token symbols recognised by the vault's ledger collaborator.
const (
	StakedToken = "STK"
	RewardToken = "RWD"
)

// TermCount fixes the term table at exactly three slots. The arrays below are
// sized by it so the invariant holds structurally rather than by runtime
// checks.
const TermCount = 3

// SecondsPerDay converts the table's day-denominated durations into the
// engine's unix-second clock.
const SecondsPerDay = 24 * 60 * 60

// TermTable holds the configured lock durations and their annual simple-yield
// percentages as parallel fixed-size arrays, addressable by slot index 0..2.
type TermTable struct {
	DurationDays  [TermCount]uint64 `json:"durationDays"`
	YieldPercents [TermCount]uint64 `json:"yieldPercents"`
}

// Clone returns a copy of the table. The arrays are value types so a shallow
// copy suffices.
func (t *TermTable) Clone() *TermTable {
	if t == nil {
		return &TermTable{}
	}
	clone := *t
	return &clone
}

// HasDuration reports whether any slot carries the given duration.
func (t *TermTable) HasDuration(termDays uint64) bool {
	if t == nil {
		return false
	}
	for _, d := range t.DurationDays {
		if d == termDays {
			return true
		}
	}
	return false
}

// YieldFor resolves the annual yield percentage for a duration against the
// current slots. A duration no slot carries yields zero; reconfiguring the
// table after issuance therefore silently zeroes accrual for orphaned
// deposits instead of erroring.
func (t *TermTable) YieldFor(termDays uint64) uint64 {
	if t == nil {
		return 0
	}
	for i, d := range t.DurationDays {
		if d == termDays {
			return t.YieldPercents[i]
		}
	}
	return 0
}

// Deposit is a single fixed-term stake held in vault custody. It is appended
// to the ledger at creation and never deleted; finalization marks it ended and
// zeroes the outstanding amount, leaving the record queryable as history.
type Deposit struct {
	ID        uint64   `json:"id"`
	Owner     [20]byte `json:"owner"`
	Amount    *big.Int `json:"amount"`
	TermDays  uint64   `json:"termDays"`
	StartTime int64    `json:"startTime"`
	EndTime   int64    `json:"endTime"`
	Ended     bool     `json:"ended"`
}

// Clone returns a deep copy of the deposit so callers can safely mutate the
// copy without affecting the stored instance.
func (d *Deposit) Clone() *Deposit {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Amount != nil {
		clone.Amount = new(big.Int).Set(d.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// NormalizeToken ensures the provided symbol matches a supported asset and
// returns the canonical uppercase form.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	switch trimmed {
	case StakedToken, RewardToken:
		return trimmed, nil
	default:
		return "", fmt.Errorf("unsupported vault token: %s", symbol)
	}
}

// SanitizeDeposit validates the supplied deposit record, returning a cloned
// instance with a non-nil amount. The function does not mutate the original.
func SanitizeDeposit(d *Deposit) (*Deposit, error) {
	if d == nil {
		return nil, fmt.Errorf("nil deposit")
	}
	clone := d.Clone()
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("deposit amount must be non-negative")
	}
	if clone.EndTime < clone.StartTime {
		return nil, fmt.Errorf("deposit end time precedes start time")
	}
	return clone, nil
}

package staking

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"stakevault/core/events"
)

var (
	errNilState  = errors.New("staking engine: state not configured")
	errNilLedger = errors.New("staking engine: token ledger not configured")
)

// engineState is the narrow persistence surface the engine requires. The
// deposit ledger is append-only: DepositPut with id == DepositCount appends,
// a lower id replaces the stored record in place.
type engineState interface {
	DepositPut(*Deposit) error
	DepositGet(id uint64) (*Deposit, bool, error)
	DepositCount() (uint64, error)
	DepositsByOwner(owner [20]byte) ([]uint64, error)
	TermsGet() (*TermTable, error)
	TermsPut(*TermTable) error
}

// TokenLedger is the external fungible-asset collaborator holding the staked
// and reward balances. Transfer reports failure either through its boolean or
// an error; the engine treats both identically and aborts the operation.
type TokenLedger interface {
	BalanceOf(token string, addr [20]byte) (*big.Int, error)
	Transfer(token string, from, to [20]byte, amount *big.Int) (bool, error)
}

// Engine owns the deposit lifecycle and the term table. All public operations
// are serialized behind a single mutex and apply their state mutations and
// ledger calls as one all-or-nothing unit, rolling the ledger entry back when
// the payout transfer fails.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	ledger  TokenLedger
	emitter events.Emitter
	nowFn   func() int64
	admin   [20]byte
	vault   [20]byte
}

// NewEngine creates a staking engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger collaborator.
func (e *Engine) SetLedger(ledger TokenLedger) { e.ledger = ledger }

// SetAdmin configures the address allowed to mutate the term table.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetVault configures the custody address holding staked principal and the
// reward float.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireCollaborators() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadTerms() (*TermTable, error) {
	table, err := e.state.TermsGet()
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = &TermTable{}
	}
	return table, nil
}

// Terms returns a copy of the current term table.
func (e *Engine) Terms() (*TermTable, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	table, err := e.loadTerms()
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// SetTermDurations replaces term table duration slots. Supplying fewer than
// three values updates only the leading slots and leaves the remainder at
// their prior values; more than three values is rejected outright.
func (e *Engine) SetTermDurations(caller [20]byte, durationDays []uint64) (*TermTable, error) {
	return e.updateTerms(caller, "durations", durationDays, func(t *TermTable, i int, v uint64) {
		t.DurationDays[i] = v
	}, func(t *TermTable) [TermCount]uint64 { return t.DurationDays })
}

// SetTermYields replaces term table yield slots with the same partial-update
// contract as SetTermDurations.
func (e *Engine) SetTermYields(caller [20]byte, yieldPercents []uint64) (*TermTable, error) {
	return e.updateTerms(caller, "yields", yieldPercents, func(t *TermTable, i int, v uint64) {
		t.YieldPercents[i] = v
	}, func(t *TermTable) [TermCount]uint64 { return t.YieldPercents })
}

func (e *Engine) updateTerms(caller [20]byte, field string, values []uint64, assign func(*TermTable, int, uint64), snapshot func(*TermTable) [TermCount]uint64) (*TermTable, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.admin {
		return nil, ErrNotAuthorized
	}
	if len(values) > TermCount {
		return nil, fmt.Errorf("%w: got %d entries, table has %d slots", ErrInvalidConfigurationSize, len(values), TermCount)
	}
	table, err := e.loadTerms()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		assign(table, i, v)
	}
	if err := e.state.TermsPut(table); err != nil {
		return nil, err
	}
	e.emit(events.StakingTermsUpdated{Field: field, Values: snapshot(table)})
	return table.Clone(), nil
}

// Stake moves amount of the staked asset from the caller into vault custody
// and appends a new deposit locked for termDays. The deposit id equals its
// position in the ledger.
func (e *Engine) Stake(caller [20]byte, amount *big.Int, termDays uint64) (*Deposit, error) {
	if err := e.requireCollaborators(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, fmt.Errorf("staking: amount must be positive")
	}
	table, err := e.loadTerms()
	if err != nil {
		return nil, err
	}
	if !table.HasDuration(termDays) {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidTerm, termDays)
	}
	balance, err := e.ledger.BalanceOf(StakedToken, caller)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Cmp(amt) < 0 {
		return nil, ErrInsufficientBalance
	}
	ok, err := e.ledger.Transfer(StakedToken, caller, e.vault, amt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return nil, ErrTransferFailed
	}

	id, err := e.state.DepositCount()
	if err != nil {
		return nil, err
	}
	now := e.now()
	dep := &Deposit{
		ID:        id,
		Owner:     caller,
		Amount:    amt,
		TermDays:  termDays,
		StartTime: now,
		EndTime:   now + int64(termDays)*SecondsPerDay,
	}
	if err := e.state.DepositPut(dep); err != nil {
		return nil, err
	}
	e.emit(events.StakingStaked{ID: dep.ID, Owner: dep.Owner, Amount: cloneBigInt(dep.Amount), TermDays: dep.TermDays})
	return dep.Clone(), nil
}

// Unstake finalizes a matured deposit exactly once, paying principal plus the
// accrued reward out of the vault's reward-asset custody. The ledger entry is
// marked ended and zeroed before the payout is requested; a failed payout
// restores the prior entry so the whole operation remains all-or-nothing.
func (e *Engine) Unstake(caller [20]byte, id uint64) (*big.Int, error) {
	if err := e.requireCollaborators(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	dep, found, err := e.state.DepositGet(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDepositNotFound
	}
	if dep.Owner != caller {
		return nil, ErrNotOwner
	}
	if dep.Ended {
		return nil, ErrAlreadyFinalized
	}
	now := e.now()
	if now < dep.EndTime {
		return nil, ErrTermNotElapsed
	}
	principal := cloneBigInt(dep.Amount)
	custody, err := e.ledger.BalanceOf(RewardToken, e.vault)
	if err != nil {
		return nil, err
	}
	// Solvency is guarded against the principal alone, not principal plus
	// reward. Payouts whose reward exceeds the remaining float are caught by
	// the transfer itself.
	if custody == nil || custody.Cmp(principal) < 0 {
		return nil, ErrInsufficientRewardCustody
	}

	table, err := e.loadTerms()
	if err != nil {
		return nil, err
	}
	reward := rewardAccrued(principal, table.YieldFor(dep.TermDays), now-dep.StartTime)

	prior := dep.Clone()
	dep.Ended = true
	dep.Amount = big.NewInt(0)
	if err := e.state.DepositPut(dep); err != nil {
		return nil, err
	}

	total := new(big.Int).Add(principal, reward)
	ok, err := e.ledger.Transfer(RewardToken, e.vault, dep.Owner, total)
	if err != nil || !ok {
		// Compensating rollback: restore the entry so the finalization and
		// the payout stay a single all-or-nothing unit.
		if restoreErr := e.state.DepositPut(prior); restoreErr != nil {
			return nil, fmt.Errorf("%w: rollback failed: %v", ErrTransferFailed, restoreErr)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil, ErrTransferFailed
	}
	e.emit(events.StakingUnstaked{ID: dep.ID, Owner: dep.Owner, TotalPaid: cloneBigInt(total)})
	return total, nil
}

// PendingRewards quotes the reward accrued by a deposit at the given unix
// time. The quote is pure: elapsed time is not capped at the term, so a
// matured but unclaimed deposit keeps quoting a growing reward, and a
// finalized deposit quotes zero because its stored amount is zero.
func (e *Engine) PendingRewards(id uint64, now int64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	dep, found, err := e.state.DepositGet(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDepositNotFound
	}
	table, err := e.loadTerms()
	if err != nil {
		return nil, err
	}
	return rewardAccrued(dep.Amount, table.YieldFor(dep.TermDays), now-dep.StartTime), nil
}

// Deposit returns a copy of the stored deposit record.
func (e *Engine) Deposit(id uint64) (*Deposit, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	dep, found, err := e.state.DepositGet(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDepositNotFound
	}
	return dep.Clone(), nil
}

// DepositCount reports the ledger length, which is also the id the next stake
// will receive.
func (e *Engine) DepositCount() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.DepositCount()
}

// DepositsByOwner returns the owner's deposits in creation order.
func (e *Engine) DepositsByOwner(owner [20]byte) ([]*Deposit, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ids, err := e.state.DepositsByOwner(owner)
	if err != nil {
		return nil, err
	}
	deposits := make([]*Deposit, 0, len(ids))
	for _, id := range ids {
		dep, found, err := e.state.DepositGet(id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("staking: owner index references missing deposit %d", id)
		}
		deposits = append(deposits, dep.Clone())
	}
	return deposits, nil
}

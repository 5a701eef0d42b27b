package staking

import "errors"

var (
	// ErrInvalidTerm rejects a stake whose requested lock duration does not
	// match any configured term table slot.
	ErrInvalidTerm = errors.New("staking: term not recognized")
	// ErrInsufficientBalance rejects a stake exceeding the caller's spendable
	// staked-asset balance.
	ErrInsufficientBalance = errors.New("staking: insufficient caller balance")
	// ErrTransferFailed surfaces a failure signalled by the token ledger.
	ErrTransferFailed = errors.New("staking: token transfer failed")
	// ErrNotOwner rejects an unstake from anyone but the deposit owner.
	ErrNotOwner = errors.New("staking: caller is not the deposit owner")
	// ErrAlreadyFinalized rejects a second unstake of the same deposit.
	ErrAlreadyFinalized = errors.New("staking: deposit already finalized")
	// ErrTermNotElapsed rejects an unstake before the deposit's end time.
	ErrTermNotElapsed = errors.New("staking: term not elapsed")
	// ErrInsufficientRewardCustody rejects an unstake when the vault's
	// reward-asset balance cannot cover the payout.
	ErrInsufficientRewardCustody = errors.New("staking: insufficient reward custody")
	// ErrInvalidConfigurationSize rejects a term table update carrying more
	// entries than the table has slots.
	ErrInvalidConfigurationSize = errors.New("staking: invalid configuration size")
	// ErrNotAuthorized rejects term table mutations from anyone but the
	// configured administrator.
	ErrNotAuthorized = errors.New("staking: caller is not the administrator")
	// ErrDepositNotFound is returned for lookups of unknown deposit ids.
	ErrDepositNotFound = errors.New("staking: deposit not found")
)

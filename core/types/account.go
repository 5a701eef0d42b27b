package types

import "math/big"

// Account holds the two fungible balances tracked by the vault service: the
// staked asset (STK) and the reward asset (RWD). Balances are account-based;
// custody held on behalf of depositors lives in an ordinary account at the
// configured vault address.
type Account struct {
	Nonce      uint64   `json:"nonce"`
	BalanceSTK *big.Int `json:"balanceSTK"`
	BalanceRWD *big.Int `json:"balanceRWD"`
}

// Normalize replaces nil balance pointers with zero values so callers can
// operate on the account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{BalanceSTK: big.NewInt(0), BalanceRWD: big.NewInt(0)}
	}
	if a.BalanceSTK == nil {
		a.BalanceSTK = big.NewInt(0)
	}
	if a.BalanceRWD == nil {
		a.BalanceRWD = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return (&Account{}).Normalize()
	}
	clone := &Account{Nonce: a.Nonce}
	if a.BalanceSTK != nil {
		clone.BalanceSTK = new(big.Int).Set(a.BalanceSTK)
	}
	if a.BalanceRWD != nil {
		clone.BalanceRWD = new(big.Int).Set(a.BalanceRWD)
	}
	return clone.Normalize()
}

package config

import (
	"fmt"
	"math/big"
	"strings"

	"stakevault/core/types"
	"stakevault/crypto"
	"stakevault/native/staking"
)

// TermTable converts the genesis slots into the engine's fixed-size table.
// Fewer than three configured slots fill the leading positions and leave the
// remainder zeroed, matching the table's partial-update contract.
func (g Genesis) TermTable() *staking.TermTable {
	table := &staking.TermTable{}
	for i, d := range g.TermDays {
		if i >= staking.TermCount {
			break
		}
		table.DurationDays[i] = d
	}
	for i, y := range g.YieldPercents {
		if i >= staking.TermCount {
			break
		}
		table.YieldPercents[i] = y
	}
	return table
}

// AccountBalances parses the genesis account list into ledger accounts.
func (g Genesis) AccountBalances() (map[[20]byte]*types.Account, error) {
	accounts := make(map[[20]byte]*types.Account, len(g.Accounts))
	for _, entry := range g.Accounts {
		addr, err := crypto.DecodeAddress(entry.Address)
		if err != nil {
			return nil, fmt.Errorf("config: genesis account %q: %w", entry.Address, err)
		}
		acct := (&types.Account{}).Normalize()
		if err := setBalance(acct.BalanceSTK, entry.BalanceSTK); err != nil {
			return nil, fmt.Errorf("config: genesis account %q STK: %w", entry.Address, err)
		}
		if err := setBalance(acct.BalanceRWD, entry.BalanceRWD); err != nil {
			return nil, fmt.Errorf("config: genesis account %q RWD: %w", entry.Address, err)
		}
		accounts[addr.Array()] = acct
	}
	return accounts, nil
}

func setBalance(dst *big.Int, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() < 0 {
		return fmt.Errorf("invalid balance %q", raw)
	}
	dst.Set(parsed)
	return nil
}

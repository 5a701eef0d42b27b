package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"stakevault/core/types"
	"stakevault/native/staking"
	"stakevault/storage"
)

const (
	keyAccountPrefix = "acct:"
	keyDepositPrefix = "dep:"
	keyOwnerPrefix   = "own:"
	keyDepositCount  = "meta:depositCount"
	keyTermTable     = "meta:terms"
	keyGenesisDone   = "meta:genesis"
)

// Manager persists accounts, the deposit ledger and the term table in a
// key-value store and doubles as the engine's token ledger collaborator. All
// records are JSON-encoded under prefixed keys.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr [20]byte) []byte {
	return []byte(keyAccountPrefix + hex.EncodeToString(addr[:]))
}

func depositKey(id uint64) []byte {
	return []byte(keyDepositPrefix + strconv.FormatUint(id, 10))
}

func ownerKey(addr [20]byte) []byte {
	return []byte(keyOwnerPrefix + hex.EncodeToString(addr[:]))
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", string(key), err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", string(key), err)
	}
	return m.db.Put(key, raw)
}

// --- Accounts / token ledger ---

// GetAccount loads the account stored at addr. Unknown addresses resolve to a
// zero-balance account rather than an error.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccount(addr)
}

func (m *Manager) getAccount(addr [20]byte) (*types.Account, error) {
	acct := &types.Account{}
	if _, err := m.getJSON(accountKey(addr), acct); err != nil {
		return nil, err
	}
	return acct.Normalize(), nil
}

// PutAccount persists the account at addr.
func (m *Manager) PutAccount(addr [20]byte, acct *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON(accountKey(addr), acct.Normalize())
}

// BalanceOf reports the spendable balance of the given token for addr.
func (m *Manager) BalanceOf(token string, addr [20]byte) (*big.Int, error) {
	normalized, err := staking.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, err := m.getAccount(addr)
	if err != nil {
		return nil, err
	}
	switch normalized {
	case staking.StakedToken:
		return new(big.Int).Set(acct.BalanceSTK), nil
	default:
		return new(big.Int).Set(acct.BalanceRWD), nil
	}
}

// Transfer moves amount of token between accounts. Insufficient funds are the
// collaborator's boolean failure signal; malformed input is an error. Both
// sides of the move are written before returning, so a false result leaves
// balances untouched.
func (m *Manager) Transfer(token string, from, to [20]byte, amount *big.Int) (bool, error) {
	normalized, err := staking.NormalizeToken(token)
	if err != nil {
		return false, err
	}
	if amount == nil || amount.Sign() < 0 {
		return false, fmt.Errorf("state: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fromAcct, err := m.getAccount(from)
	if err != nil {
		return false, err
	}
	if from == to {
		// Self transfers only have to prove the funds exist.
		switch normalized {
		case staking.StakedToken:
			return fromAcct.BalanceSTK.Cmp(amount) >= 0, nil
		default:
			return fromAcct.BalanceRWD.Cmp(amount) >= 0, nil
		}
	}
	toAcct, err := m.getAccount(to)
	if err != nil {
		return false, err
	}
	switch normalized {
	case staking.StakedToken:
		if fromAcct.BalanceSTK.Cmp(amount) < 0 {
			return false, nil
		}
		fromAcct.BalanceSTK = new(big.Int).Sub(fromAcct.BalanceSTK, amount)
		toAcct.BalanceSTK = new(big.Int).Add(toAcct.BalanceSTK, amount)
	default:
		if fromAcct.BalanceRWD.Cmp(amount) < 0 {
			return false, nil
		}
		fromAcct.BalanceRWD = new(big.Int).Sub(fromAcct.BalanceRWD, amount)
		toAcct.BalanceRWD = new(big.Int).Add(toAcct.BalanceRWD, amount)
	}
	if err := m.putJSON(accountKey(from), fromAcct); err != nil {
		return false, err
	}
	if err := m.putJSON(accountKey(to), toAcct); err != nil {
		return false, err
	}
	return true, nil
}

// --- Deposit ledger ---

// DepositPut stores a deposit record. An id equal to the current ledger
// length appends and indexes the deposit under its owner; a lower id replaces
// the stored record in place.
func (m *Manager) DepositPut(dep *staking.Deposit) error {
	sanitized, err := staking.SanitizeDeposit(dep)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count, err := m.depositCount()
	if err != nil {
		return err
	}
	if sanitized.ID > count {
		return fmt.Errorf("state: deposit id %d skips ledger position %d", sanitized.ID, count)
	}
	if err := m.putJSON(depositKey(sanitized.ID), sanitized); err != nil {
		return err
	}
	if sanitized.ID == count {
		var ids []uint64
		if _, err := m.getJSON(ownerKey(sanitized.Owner), &ids); err != nil {
			return err
		}
		ids = append(ids, sanitized.ID)
		if err := m.putJSON(ownerKey(sanitized.Owner), ids); err != nil {
			return err
		}
		if err := m.putJSON([]byte(keyDepositCount), count+1); err != nil {
			return err
		}
	}
	return nil
}

// DepositGet loads a deposit by id.
func (m *Manager) DepositGet(id uint64) (*staking.Deposit, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dep := &staking.Deposit{}
	found, err := m.getJSON(depositKey(id), dep)
	if err != nil || !found {
		return nil, false, err
	}
	return dep.Clone(), true, nil
}

// DepositCount reports the ledger length.
func (m *Manager) DepositCount() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.depositCount()
}

func (m *Manager) depositCount() (uint64, error) {
	var count uint64
	if _, err := m.getJSON([]byte(keyDepositCount), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// DepositsByOwner returns the ids of the owner's deposits in creation order.
func (m *Manager) DepositsByOwner(owner [20]byte) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uint64
	if _, err := m.getJSON(ownerKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- Term table ---

// TermsGet loads the term table; an unset table resolves to zero slots.
func (m *Manager) TermsGet() (*staking.TermTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table := &staking.TermTable{}
	if _, err := m.getJSON([]byte(keyTermTable), table); err != nil {
		return nil, err
	}
	return table, nil
}

// TermsPut persists the term table.
func (m *Manager) TermsPut(table *staking.TermTable) error {
	if table == nil {
		return fmt.Errorf("state: nil term table")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putJSON([]byte(keyTermTable), table)
}

// --- Genesis ---

// InitGenesis seeds the term table and initial account balances exactly once.
// Subsequent calls are no-ops so a restarted node does not re-mint funds.
func (m *Manager) InitGenesis(table *staking.TermTable, accounts map[[20]byte]*types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var done bool
	if _, err := m.getJSON([]byte(keyGenesisDone), &done); err != nil {
		return err
	}
	if done {
		return nil
	}
	if table != nil {
		if err := m.putJSON([]byte(keyTermTable), table); err != nil {
			return err
		}
	}
	for addr, acct := range accounts {
		if err := m.putJSON(accountKey(addr), acct.Normalize()); err != nil {
			return err
		}
	}
	return m.putJSON([]byte(keyGenesisDone), true)
}

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/core/types"
	"stakevault/native/staking"
	"stakevault/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestAccountsDefaultToZeroBalances(t *testing.T) {
	m := newTestManager(t)
	acct, err := m.GetAccount(testAddr(0x01))
	require.NoError(t, err)
	require.Zero(t, acct.BalanceSTK.Sign())
	require.Zero(t, acct.BalanceRWD.Sign())
}

func TestTransferMovesBalances(t *testing.T) {
	m := newTestManager(t)
	alice, bob := testAddr(0x11), testAddr(0x22)
	require.NoError(t, m.PutAccount(alice, &types.Account{BalanceSTK: big.NewInt(500)}))

	ok, err := m.Transfer(staking.StakedToken, alice, bob, big.NewInt(200))
	require.NoError(t, err)
	require.True(t, ok)

	fromBal, err := m.BalanceOf(staking.StakedToken, alice)
	require.NoError(t, err)
	require.Equal(t, int64(300), fromBal.Int64())
	toBal, err := m.BalanceOf(staking.StakedToken, bob)
	require.NoError(t, err)
	require.Equal(t, int64(200), toBal.Int64())
}

func TestTransferInsufficientFundsSignalsFalse(t *testing.T) {
	m := newTestManager(t)
	alice, bob := testAddr(0x11), testAddr(0x22)
	require.NoError(t, m.PutAccount(alice, &types.Account{BalanceRWD: big.NewInt(10)}))

	ok, err := m.Transfer(staking.RewardToken, alice, bob, big.NewInt(11))
	require.NoError(t, err)
	require.False(t, ok)

	// A refused transfer must leave both balances untouched.
	fromBal, err := m.BalanceOf(staking.RewardToken, alice)
	require.NoError(t, err)
	require.Equal(t, int64(10), fromBal.Int64())
	toBal, err := m.BalanceOf(staking.RewardToken, bob)
	require.NoError(t, err)
	require.Zero(t, toBal.Sign())
}

func TestTransferRejectsUnknownToken(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Transfer("DOGE", testAddr(0x01), testAddr(0x02), big.NewInt(1))
	require.Error(t, err)
}

func TestDepositLedgerAppendsAndIndexes(t *testing.T) {
	m := newTestManager(t)
	owner := testAddr(0x33)

	count, err := m.DepositCount()
	require.NoError(t, err)
	require.Zero(t, count)

	dep := &staking.Deposit{ID: 0, Owner: owner, Amount: big.NewInt(100), TermDays: 30, StartTime: 10, EndTime: 10 + 30*staking.SecondsPerDay}
	require.NoError(t, m.DepositPut(dep))

	count, err = m.DepositCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	stored, found, err := m.DepositGet(0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(100), stored.Amount.Int64())

	ids, err := m.DepositsByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, ids)

	// Appending out of sequence is rejected.
	require.Error(t, m.DepositPut(&staking.Deposit{ID: 5, Owner: owner, Amount: big.NewInt(1)}))

	// In-place replacement keeps the ledger length and the owner index.
	stored.Ended = true
	stored.Amount = big.NewInt(0)
	require.NoError(t, m.DepositPut(stored))
	count, err = m.DepositCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
	ids, err = m.DepositsByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, ids)
}

func TestTermsRoundTrip(t *testing.T) {
	m := newTestManager(t)

	table, err := m.TermsGet()
	require.NoError(t, err)
	require.Equal(t, &staking.TermTable{}, table)

	want := &staking.TermTable{
		DurationDays:  [staking.TermCount]uint64{30, 90, 180},
		YieldPercents: [staking.TermCount]uint64{5, 10, 20},
	}
	require.NoError(t, m.TermsPut(want))

	table, err = m.TermsGet()
	require.NoError(t, err)
	require.Equal(t, want, table)
}

func TestInitGenesisAppliesOnce(t *testing.T) {
	m := newTestManager(t)
	alice := testAddr(0x44)
	table := &staking.TermTable{DurationDays: [staking.TermCount]uint64{7, 14, 28}}

	require.NoError(t, m.InitGenesis(table, map[[20]byte]*types.Account{
		alice: {BalanceSTK: big.NewInt(1_000)},
	}))

	bal, err := m.BalanceOf(staking.StakedToken, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), bal.Int64())

	// A second genesis (e.g. after restart) must not re-mint.
	require.NoError(t, m.InitGenesis(table, map[[20]byte]*types.Account{
		alice: {BalanceSTK: big.NewInt(9_999)},
	}))
	bal, err = m.BalanceOf(staking.StakedToken, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), bal.Int64())
}

func TestManagerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	m1 := NewManager(db1)
	owner := testAddr(0x55)
	require.NoError(t, m1.DepositPut(&staking.Deposit{ID: 0, Owner: owner, Amount: big.NewInt(42), TermDays: 30}))
	require.NoError(t, db1.Close())

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()
	m2 := NewManager(db2)

	stored, found, err := m2.DepositGet(0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(42), stored.Amount.Int64())
	count, err := m2.DepositCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

package staking

import (
	"errors"
	"math/big"
	"testing"

	"stakevault/core/events"
)

func TestSetTermsRequiresAdmin(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t)
	if _, err := engine.SetTermDurations(aliceAddr, []uint64{1, 2, 3}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := engine.SetTermYields(aliceAddr, []uint64{1, 2, 3}); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSetTermsRejectsOversizedConfiguration(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t)
	if _, err := engine.SetTermDurations(adminAddr, []uint64{1, 2, 3, 4}); !errors.Is(err, ErrInvalidConfigurationSize) {
		t.Fatalf("expected ErrInvalidConfigurationSize, got %v", err)
	}
	if _, err := engine.SetTermYields(adminAddr, []uint64{1, 2, 3, 4}); !errors.Is(err, ErrInvalidConfigurationSize) {
		t.Fatalf("expected ErrInvalidConfigurationSize, got %v", err)
	}
	// The rejected update must not have touched any slot.
	table, err := engine.Terms()
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if table.DurationDays != [TermCount]uint64{30, 90, 180} {
		t.Fatalf("durations mutated by rejected update: %v", table.DurationDays)
	}
}

func TestPartialTermUpdateLeavesRemainingSlots(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t)

	// A one-entry update replaces slot 0 and silently leaves slots 1 and 2 at
	// their prior values.
	table, err := engine.SetTermDurations(adminAddr, []uint64{60})
	if err != nil {
		t.Fatalf("partial update: %v", err)
	}
	if table.DurationDays != [TermCount]uint64{60, 90, 180} {
		t.Fatalf("durations after 1-entry update: %v", table.DurationDays)
	}

	table, err = engine.SetTermYields(adminAddr, []uint64{7, 12})
	if err != nil {
		t.Fatalf("partial yield update: %v", err)
	}
	if table.YieldPercents != [TermCount]uint64{7, 12, 20} {
		t.Fatalf("yields after 2-entry update: %v", table.YieldPercents)
	}

	// Read back through the engine to confirm persistence, not just the
	// returned copy.
	stored, err := engine.Terms()
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if stored.DurationDays != [TermCount]uint64{60, 90, 180} || stored.YieldPercents != [TermCount]uint64{7, 12, 20} {
		t.Fatalf("stored table %+v", stored)
	}
}

func TestTermUpdateDoesNotTouchExistingDeposits(t *testing.T) {
	engine, _, ledger, _, _ := newTestEngine(t)
	ledger.set(StakedToken, aliceAddr, 1_000)

	dep, err := engine.Stake(aliceAddr, big.NewInt(1_000), 90)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := engine.SetTermDurations(adminAddr, []uint64{10, 20, 40}); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	stored, err := engine.Deposit(dep.ID)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if stored.TermDays != 90 || stored.Amount.String() != "1000" {
		t.Fatalf("deposit mutated by term update: %+v", stored)
	}
}

func TestTermUpdateEmitsEvent(t *testing.T) {
	engine, _, _, emitter, _ := newTestEngine(t)
	if _, err := engine.SetTermYields(adminAddr, []uint64{1}); err != nil {
		t.Fatalf("set yields: %v", err)
	}
	if len(emitter.emitted) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.emitted))
	}
	updated, ok := emitter.emitted[0].(events.StakingTermsUpdated)
	if !ok {
		t.Fatalf("unexpected event %T", emitter.emitted[0])
	}
	if updated.Field != "yields" || updated.Values != [TermCount]uint64{1, 10, 20} {
		t.Fatalf("unexpected payload: %+v", updated)
	}
}

func TestYieldForUnknownDurationIsZero(t *testing.T) {
	table := &TermTable{DurationDays: [TermCount]uint64{30, 90, 180}, YieldPercents: [TermCount]uint64{5, 10, 20}}
	if got := table.YieldFor(90); got != 10 {
		t.Fatalf("YieldFor(90) = %d, want 10", got)
	}
	if got := table.YieldFor(91); got != 0 {
		t.Fatalf("YieldFor(91) = %d, want 0", got)
	}
}

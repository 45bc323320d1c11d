package nvram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialGreater_HandlesWraparound(t *testing.T) {
	t.Parallel()

	assert.True(t, serialGreater(2, 1))
	assert.False(t, serialGreater(1, 2))
	assert.False(t, serialGreater(1, 1))

	// RFC 1982: after wraparound, a small counter can be "greater" than
	// a large one.
	assert.True(t, serialGreater(1, 0xFFFFFFFF))
	assert.False(t, serialGreater(0xFFFFFFFF, 1))
}

func TestDeriveTransactionState_BothVerifiedPicksGreaterCounter(t *testing.T) {
	t.Parallel()

	ts := deriveTransactionState(
		SectionHeader{Counter: 5}, SectionHeader{Counter: 7},
		StateAllVerified, StateAllVerified,
	)

	require := assert.New(t)
	require.True(ts.HasActive)
	require.Equal(SectionB, ts.Active)
}

func TestDeriveTransactionState_TiePrefersA(t *testing.T) {
	t.Parallel()

	ts := deriveTransactionState(
		SectionHeader{Counter: 5}, SectionHeader{Counter: 5},
		StateAllVerified, StateAllVerified,
	)

	assert.True(t, ts.HasActive)
	assert.Equal(t, SectionA, ts.Active)
}

func TestDeriveTransactionState_OnlyOneVerified(t *testing.T) {
	t.Parallel()

	ts := deriveTransactionState(
		SectionHeader{Counter: 99}, SectionHeader{Counter: 1},
		StateCorrupt, StateAllVerified,
	)

	assert.True(t, ts.HasActive)
	assert.Equal(t, SectionB, ts.Active)
}

func TestDeriveTransactionState_NeitherVerifiedHasNoActive(t *testing.T) {
	t.Parallel()

	ts := deriveTransactionState(
		SectionHeader{}, SectionHeader{},
		StateEmpty, StateEmpty,
	)

	assert.False(t, ts.HasActive)
}

func TestPlanCommit_FreshStoreWritesOnlySectionA(t *testing.T) {
	t.Parallel()

	plan := planCommit(TransactionState{HasActive: false})

	assert.Equal(t, SectionA, plan.Primary)
	assert.Equal(t, uint32(1), plan.NextCounter)
	assert.False(t, plan.Redundant)
}

func TestPlanCommit_TargetsInactiveSection(t *testing.T) {
	t.Parallel()

	ts := TransactionState{HasActive: true, Active: SectionA, CounterA: 10, CounterB: 9, StateB: StateAllVerified}

	plan := planCommit(ts)

	assert.Equal(t, SectionB, plan.Primary)
	assert.Equal(t, uint32(11), plan.NextCounter)
	assert.False(t, plan.Redundant)
}

func TestPlanCommit_CounterWraparoundTriggersRedundantWrite(t *testing.T) {
	t.Parallel()

	ts := TransactionState{HasActive: true, Active: SectionA, CounterA: 0xFFFFFFFF, StateB: StateAllVerified}

	plan := planCommit(ts)

	assert.Equal(t, SectionB, plan.Primary)
	assert.Equal(t, uint32(1), plan.NextCounter)
	assert.True(t, plan.Redundant)
}

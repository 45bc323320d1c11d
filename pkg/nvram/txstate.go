package nvram

// SectionID names one of the two mirrored sections of a store.
type SectionID int

const (
	SectionA SectionID = iota
	SectionB
)

func (id SectionID) String() string {
	if id == SectionA {
		return "A"
	}

	return "B"
}

func (id SectionID) other() SectionID {
	if id == SectionA {
		return SectionB
	}

	return SectionA
}

// serialGreater reports whether a is "later" than b under RFC 1982
// serial number arithmetic: treating the 32-bit counter space as a
// ring, a is greater than b iff (a - b) mod 2^32 lies in (0, 2^31).
// This is what lets the counter wrap from 2^32-1 back through 1 without
// ever appearing to go backwards.
func serialGreater(a, b uint32) bool {
	d := a - b
	return d != 0 && d < 1<<31
}

// TransactionState captures everything the commit protocol needs to
// know about the current generation of the two sections: which one (if
// either) is active, and what each one's last read told us.
type TransactionState struct {
	StateA, StateB     SectionState
	CounterA, CounterB uint32

	// HasActive is false only for a brand new store where neither
	// section has ever been committed.
	HasActive bool
	Active    SectionID
}

// deriveTransactionState implements active-section selection (data
// model §4.4): the only sections eligible to be active are those that
// came back ALL_VERIFIED. Between two eligible sections the one with
// the serially-greater counter wins; a tie (which can only happen if
// both sections were written with the same counter, e.g. after an
// interrupted redundancy restoration) prefers A.
func deriveTransactionState(hA, hB SectionHeader, stateA, stateB SectionState) TransactionState {
	ts := TransactionState{
		StateA:   stateA,
		StateB:   stateB,
		CounterA: hA.Counter,
		CounterB: hB.Counter,
	}

	aOK := stateA == StateAllVerified
	bOK := stateB == StateAllVerified

	switch {
	case aOK && bOK:
		ts.HasActive = true
		if serialGreater(hB.Counter, hA.Counter) {
			ts.Active = SectionB
		} else {
			ts.Active = SectionA
		}
	case aOK:
		ts.HasActive = true
		ts.Active = SectionA
	case bOK:
		ts.HasActive = true
		ts.Active = SectionB
	default:
		ts.HasActive = false
	}

	return ts
}

// CommitPlan is the outcome of the next-transaction decision: which
// section(s) to write this commit, with what counter, and whether the
// write must restore redundancy by also refreshing the section that is
// not becoming primary.
type CommitPlan struct {
	// Primary is the section the new data is written to first. On a
	// fresh store (no active section yet) this is SectionA.
	Primary SectionID

	// NextCounter is the counter value to stamp on Primary (and, if
	// Redundant, on the mirrored write too).
	NextCounter uint32

	// Redundant is true when, after writing Primary, the commit must
	// also overwrite the other section with the same data and counter
	// rather than leaving it as stale history. This happens only when
	// the counter wraps back to 1: serial arithmetic loses the ability
	// to compare across too wide a gap, so redundancy must be
	// re-established immediately. A fresh store's first commit is NOT
	// redundant — it writes only Primary (A), leaving the other section
	// untouched, per the no-reset rule for active == NONE.
	Redundant bool
}

// planCommit implements the next-transaction decision (data model
// §4.4): exactly one of the two sections is the commit target, chosen
// as whichever one is NOT currently active, so the previously active
// section survives untouched if the process dies mid-write.
func planCommit(ts TransactionState) CommitPlan {
	if !ts.HasActive {
		return CommitPlan{
			Primary:     SectionA,
			NextCounter: 1,
			Redundant:   false,
		}
	}

	primary := ts.Active.other()

	activeCounter := ts.CounterA
	if ts.Active == SectionB {
		activeCounter = ts.CounterB
	}

	next := activeCounter + 1

	counterReset := next == 0
	if counterReset {
		next = 1
	}

	return CommitPlan{
		Primary:     primary,
		NextCounter: next,
		Redundant:   counterReset,
	}
}

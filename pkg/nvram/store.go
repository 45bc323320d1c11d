package nvram

import (
	"context"
	"fmt"
)

// Store is an open dual-section key/value store. It holds an in-memory
// working copy of the active section's entries; mutations (Set, Remove)
// apply to the working copy immediately, but are only durable once
// Commit returns nil.
//
// A Store is not safe for concurrent use by multiple goroutines.
type Store struct {
	mediumA, mediumB Medium

	ts TransactionState

	// working is the in-memory copy mutated by Set/Remove and written
	// out by Commit.
	working *EntrySet

	// lastCommitted is the entry set currently durable in the active
	// section (nil/empty content if there is no active section yet).
	// Commit compares working against it to skip writing when nothing
	// changed.
	lastCommitted *EntrySet
}

// Open reads both sections of a and b, classifies them, derives the
// active section (if any), and loads its entries into the working copy.
// A pair of freshly erased (or nonexistent) mediums is a valid store
// with zero entries: the first Commit establishes section A.
func Open(ctx context.Context, a, b Medium) (*Store, error) {
	rawA, err := a.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading section A: %v", ErrIO, err)
	}

	rawB, err := b.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading section B: %v", ErrIO, err)
	}

	hA, esA, stateA := decodeSection(rawA, a.BlankFill())
	hB, esB, stateB := decodeSection(rawB, b.BlankFill())

	ts := deriveTransactionState(hA, hB, stateA, stateB)

	s := &Store{
		mediumA: a,
		mediumB: b,
		ts:      ts,
	}

	switch {
	case ts.HasActive && ts.Active == SectionA:
		s.working = esA.Clone()
	case ts.HasActive && ts.Active == SectionB:
		s.working = esB.Clone()
	default:
		s.working = NewEntrySet()
	}

	s.lastCommitted = s.working.Clone()

	return s, nil
}

// Get returns the value for key in the working copy.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, ok := s.working.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	return v, nil
}

// Set inserts or replaces key's value in the working copy. It does not
// touch storage; call Commit to persist it.
func (s *Store) Set(key, value []byte) error {
	return s.working.Set(key, value)
}

// Remove deletes key from the working copy, reporting whether it was
// present. It does not touch storage; call Commit to persist it.
func (s *Store) Remove(key []byte) bool {
	return s.working.Remove(key)
}

// List returns every entry currently in the working copy, in stable
// iteration order.
func (s *Store) List() []Entry {
	return s.working.Entries()
}

// ActiveSection reports which section is currently authoritative, if
// either. The zero SectionID (SectionA) is returned alongside false when
// the store has never been committed.
func (s *Store) ActiveSection() (SectionID, bool) {
	return s.ts.Active, s.ts.HasActive
}

func (s *Store) mediumFor(id SectionID) Medium {
	if id == SectionA {
		return s.mediumA
	}

	return s.mediumB
}

// Commit writes the working copy to the section not currently active,
// stamping it with the next transaction counter, then updates the
// store's notion of the active section. On a counter wraparound it also
// refreshes the other section with an identical image to restore full
// redundancy.
//
// If the working copy is unchanged from the active section's current
// payload, Commit is a no-op: it returns nil without writing to either
// medium or advancing the counter, leaving both sections' byte contents
// untouched. A fresh store's first commit is never treated as a no-op,
// since there is no active payload yet to compare against.
//
// If the primary write succeeds but a required redundant write fails,
// Commit returns the redundant write's error: the store's active
// section has still advanced (the new data is durable), but the mirror
// is stale until a later Commit writes again. A Commit with no further
// changes is then a no-op and does not rewrite the mirror.
func (s *Store) Commit(ctx context.Context) error {
	if s.ts.HasActive && s.working.Equal(s.lastCommitted) {
		return nil
	}

	plan := planCommit(s.ts)

	img := encodeSection(plan.NextCounter, s.working)
	if uint64(len(img)) > s.mediumFor(plan.Primary).Size() {
		return fmt.Errorf("%w: encoded section is %d bytes", ErrTooSmall, len(img))
	}

	if err := s.mediumFor(plan.Primary).Write(ctx, img); err != nil {
		return fmt.Errorf("%w: writing section %s: %v", ErrIO, plan.Primary, err)
	}

	s.applyWrite(plan.Primary, plan.NextCounter)

	s.ts.HasActive = true
	s.ts.Active = plan.Primary
	s.lastCommitted = s.working.Clone()

	if plan.Redundant {
		other := plan.Primary.other()
		if err := s.mediumFor(other).Write(ctx, img); err != nil {
			return fmt.Errorf("%w: writing redundant section %s: %v", ErrIO, other, err)
		}

		s.applyWrite(other, plan.NextCounter)
	}

	return nil
}

// applyWrite updates the cached per-section bookkeeping after a
// successful write, so a subsequent Commit (without a fresh Open) sees
// the right counters and states.
func (s *Store) applyWrite(id SectionID, counter uint32) {
	if id == SectionA {
		s.ts.CounterA = counter
		s.ts.StateA = StateAllVerified
	} else {
		s.ts.CounterB = counter
		s.ts.StateB = StateAllVerified
	}
}

// Close releases both underlying mediums. It does not flush the working
// copy; uncommitted mutations are lost.
func (s *Store) Close() error {
	errA := s.mediumA.Close()
	errB := s.mediumB.Close()

	if errA != nil {
		return fmt.Errorf("%w: closing section A: %v", ErrIO, errA)
	}

	if errB != nil {
		return fmt.Errorf("%w: closing section B: %v", ErrIO, errB)
	}

	return nil
}

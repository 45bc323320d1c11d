package nvram

import "fmt"

// maxFieldLen is the largest a key or value may be: 2^32-1, the limit
// imposed by the u32 length prefixes in the wire format.
const maxFieldLen = 1<<32 - 1

// Entry is a single key/value pair. Both Key and Value are opaque byte
// strings of length in [1, 2^32-1]; the engine never interprets their
// contents.
type Entry struct {
	Key   []byte
	Value []byte
}

// EntrySet is a finite, ordered mapping from key to value. Iteration
// order equals insertion order of first appearance; setting an existing
// key replaces its value in place without moving its position.
//
// The zero value is an empty, usable set.
type EntrySet struct {
	order []string // keys, in iteration order
	vals  map[string][]byte
}

// NewEntrySet returns an empty entry set.
func NewEntrySet() *EntrySet {
	return &EntrySet{vals: make(map[string][]byte)}
}

func (s *EntrySet) ensure() {
	if s.vals == nil {
		s.vals = make(map[string][]byte)
	}
}

// Set inserts or replaces the value for key. A Set with a value
// byte-identical to the current one is a no-op (position is preserved
// either way).
//
// Returns ErrInvalidArgument if key or value has length 0 or exceeds
// 2^32-1 bytes.
func (s *EntrySet) Set(key, value []byte) error {
	if err := validateField(key); err != nil {
		return err
	}

	if err := validateField(value); err != nil {
		return err
	}

	s.ensure()

	k := string(key)

	v := make([]byte, len(value))
	copy(v, value)

	if _, exists := s.vals[k]; !exists {
		s.order = append(s.order, k)
	}

	s.vals[k] = v

	return nil
}

// Get returns the value for key and whether it was present.
func (s *EntrySet) Get(key []byte) ([]byte, bool) {
	if s.vals == nil {
		return nil, false
	}

	v, ok := s.vals[string(key)]

	return v, ok
}

// Remove deletes key, reporting whether it was present.
func (s *EntrySet) Remove(key []byte) bool {
	if s.vals == nil {
		return false
	}

	k := string(key)

	if _, ok := s.vals[k]; !ok {
		return false
	}

	delete(s.vals, k)

	for i, existing := range s.order {
		if existing == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of entries.
func (s *EntrySet) Len() int {
	return len(s.order)
}

// Entries returns all entries in iteration order. The returned slice and
// its byte slices are copies; mutating them does not affect the set.
func (s *EntrySet) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))

	for _, k := range s.order {
		key := []byte(k)
		value := append([]byte(nil), s.vals[k]...)
		out = append(out, Entry{Key: key, Value: value})
	}

	return out
}

// Clone returns a deep copy of the set.
func (s *EntrySet) Clone() *EntrySet {
	out := NewEntrySet()
	for _, e := range s.Entries() {
		_ = out.Set(e.Key, e.Value)
	}

	return out
}

// Equal reports whether two sets have the same entries in the same
// order.
func (s *EntrySet) Equal(other *EntrySet) bool {
	if s.Len() != other.Len() {
		return false
	}

	a, b := s.Entries(), other.Entries()
	for i := range a {
		if string(a[i].Key) != string(b[i].Key) {
			return false
		}

		if string(a[i].Value) != string(b[i].Value) {
			return false
		}
	}

	return true
}

func validateField(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: field must not be empty", ErrInvalidArgument)
	}

	if len(b) > maxFieldLen {
		return fmt.Errorf("%w: field of %d bytes exceeds %d", ErrInvalidArgument, len(b), maxFieldLen)
	}

	return nil
}

// IsStringTyped reports whether b should be rendered as a string rather
// than hex, per the presentation convention in the data model: a byte
// sequence is string-typed iff its last byte is 0x00.
func IsStringTyped(b []byte) bool {
	return len(b) > 0 && b[len(b)-1] == 0x00
}

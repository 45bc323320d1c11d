package nvram_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvramkv/nvram/pkg/nvram"
)

// memMedium is an in-memory fake [nvram.Medium] used to exercise the
// store's commit protocol and crash-safety properties without touching
// a real filesystem.
type memMedium struct {
	size      uint64
	blankFill byte
	data      []byte
	writeErr  error
}

func newMemMedium(size uint64) *memMedium {
	return &memMedium{size: size, blankFill: 0xFF}
}

func (m *memMedium) Size() uint64    { return m.size }
func (m *memMedium) BlankFill() byte { return m.blankFill }

func (m *memMedium) Read(ctx context.Context) ([]byte, error) {
	if m.data == nil {
		blank := make([]byte, m.size)
		for i := range blank {
			blank[i] = m.blankFill
		}

		return blank, nil
	}

	return append([]byte(nil), m.data...), nil
}

func (m *memMedium) Write(ctx context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}

	m.data = append([]byte(nil), data...)

	return nil
}

func (m *memMedium) Close() error { return nil }

// truncate simulates a crash mid-write by cutting off the tail of the
// last write, the way a power loss mid-flash-program would.
func (m *memMedium) truncate(n int) {
	if n > len(m.data) {
		n = len(m.data)
	}

	m.data = m.data[:n]
}

var _ nvram.Medium = (*memMedium)(nil)

func TestStore_OpenEmpty_HasNoActiveSection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	_, hasActive := s.ActiveSection()
	require.False(t, hasActive)
	require.Equal(t, 0, len(s.List()))
}

func TestStore_CommitThenReopen_SeesData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	require.NoError(t, s.Set([]byte("hello"), []byte("world")))
	require.NoError(t, s.Commit(ctx))

	s2, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	v, err := s2.Get([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "world", string(v))
}

func TestStore_FirstCommitWritesOnlySectionA(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Commit(ctx))

	require.NotNil(t, a.data)
	require.Nil(t, b.data)

	active, hasActive := s.ActiveSection()
	require.True(t, hasActive)
	require.Equal(t, nvram.SectionA, active)
}

func TestStore_SubsequentCommitsAlternateSections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v1")))
	require.NoError(t, s.Commit(ctx))

	active, _ := s.ActiveSection()
	require.Equal(t, nvram.SectionA, active)

	require.NoError(t, s.Set([]byte("k"), []byte("v2")))
	require.NoError(t, s.Commit(ctx))

	active, _ = s.ActiveSection()
	require.Equal(t, nvram.SectionB, active)

	require.NoError(t, s.Set([]byte("k"), []byte("v3")))
	require.NoError(t, s.Commit(ctx))

	active, _ = s.ActiveSection()
	require.Equal(t, nvram.SectionA, active)
}

func TestStore_RepeatedIdenticalCommitsReopenWithActiveSection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set([]byte("k"), []byte("v")))
		require.NoError(t, s.Commit(ctx))
	}

	s2, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	_, hasActive := s2.ActiveSection()
	require.True(t, hasActive)
}

func TestStore_CrashMidWriteLeavesPreviousSectionIntact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v1")))
	require.NoError(t, s.Commit(ctx))

	// Simulate a crash during the second commit (targets section B): the
	// write lands but is torn, corrupting B while A is untouched.
	require.NoError(t, s.Set([]byte("k"), []byte("v2")))
	require.NoError(t, s.Commit(ctx))
	b.truncate(len(b.data) / 2)

	s2, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	active, hasActive := s2.ActiveSection()
	require.True(t, hasActive)
	require.Equal(t, nvram.SectionA, active)

	v, err := s2.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))
}

func TestStore_RemoveThenCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Commit(ctx))

	require.True(t, s.Remove([]byte("k")))
	require.NoError(t, s.Commit(ctx))

	s2, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)

	_, err = s2.Get([]byte("k"))
	require.ErrorIs(t, err, nvram.ErrNotFound)
}

func TestStore_NoOpCommitLeavesBothSectionsUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(4096), newMemMedium(4096)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Commit(ctx))

	active1, _ := s.ActiveSection()
	aBytes, bBytes := append([]byte(nil), a.data...), append([]byte(nil), b.data...)

	// No intervening Set/Remove: this commit must be a no-op.
	require.NoError(t, s.Commit(ctx))

	active2, _ := s.ActiveSection()
	require.Equal(t, active1, active2)
	require.Equal(t, aBytes, a.data)
	require.Equal(t, bBytes, b.data)
}

func TestStore_CommitTooLargeForSectionFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, b := newMemMedium(16), newMemMedium(16)

	s, err := nvram.Open(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, s.Set([]byte("a-long-key-name"), []byte("a-long-value-too")))

	err = s.Commit(ctx)
	require.ErrorIs(t, err, nvram.ErrTooSmall)
}

package nvram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvramkv/nvram/pkg/nvram"
)

func TestEntrySet_SetGetRemove(t *testing.T) {
	t.Parallel()

	es := nvram.NewEntrySet()

	require.NoError(t, es.Set([]byte("a"), []byte("1")))
	require.NoError(t, es.Set([]byte("b"), []byte("2")))

	v, ok := es.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	assert.Equal(t, 2, es.Len())

	assert.True(t, es.Remove([]byte("a")))
	assert.False(t, es.Remove([]byte("a")))

	_, ok = es.Get([]byte("a"))
	assert.False(t, ok)
}

func TestEntrySet_SetPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	es := nvram.NewEntrySet()

	require.NoError(t, es.Set([]byte("first"), []byte("1")))
	require.NoError(t, es.Set([]byte("second"), []byte("2")))
	require.NoError(t, es.Set([]byte("third"), []byte("3")))

	// Replacing an existing key keeps its position.
	require.NoError(t, es.Set([]byte("first"), []byte("1-updated")))

	entries := es.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "first", string(entries[0].Key))
	assert.Equal(t, "1-updated", string(entries[0].Value))
	assert.Equal(t, "second", string(entries[1].Key))
	assert.Equal(t, "third", string(entries[2].Key))
}

func TestEntrySet_Set_RejectsEmptyFields(t *testing.T) {
	t.Parallel()

	es := nvram.NewEntrySet()

	err := es.Set(nil, []byte("v"))
	require.ErrorIs(t, err, nvram.ErrInvalidArgument)

	err = es.Set([]byte("k"), nil)
	require.ErrorIs(t, err, nvram.ErrInvalidArgument)
}

func TestEntrySet_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	es := nvram.NewEntrySet()
	require.NoError(t, es.Set([]byte("k"), []byte("v")))

	clone := es.Clone()
	require.NoError(t, clone.Set([]byte("k"), []byte("changed")))

	v, _ := es.Get([]byte("k"))
	assert.Equal(t, "v", string(v))

	v, _ = clone.Get([]byte("k"))
	assert.Equal(t, "changed", string(v))
}

func TestEntrySet_Equal(t *testing.T) {
	t.Parallel()

	a := nvram.NewEntrySet()
	require.NoError(t, a.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, a.Set([]byte("k2"), []byte("v2")))

	b := a.Clone()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Set([]byte("k2"), []byte("different")))
	assert.False(t, a.Equal(b))
}

func TestIsStringTyped(t *testing.T) {
	t.Parallel()

	assert.True(t, nvram.IsStringTyped([]byte("hello\x00")))
	assert.False(t, nvram.IsStringTyped([]byte("hello")))
	assert.False(t, nvram.IsStringTyped(nil))
}

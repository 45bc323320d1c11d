package file_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvramkv/nvram/pkg/medium/file"
)

func TestMedium_ReadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	m, err := file.New(filepath.Join(t.TempDir(), "section.bin"), 1024)
	require.NoError(t, err)

	data, err := m.Read(context.Background())
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestMedium_WriteThenReadRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "section.bin")

	m, err := file.New(path, 1024)
	require.NoError(t, err)

	want := make([]byte, 100)
	for i := range want {
		want[i] = byte(i)
	}

	ctx := context.Background()
	require.NoError(t, m.Write(ctx, want))

	got, err := m.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1024)
	require.Equal(t, want, got[:100])
}

func TestMedium_WriteRejectsOversizedData(t *testing.T) {
	t.Parallel()

	m, err := file.New(filepath.Join(t.TempDir(), "section.bin"), 8)
	require.NoError(t, err)

	err = m.Write(context.Background(), make([]byte, 9))
	require.Error(t, err)
}

package nvramconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvramkv/nvram/internal/nvramconfig"
)

func TestLoad_DefaultsWhenNoConfigFilesExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := nvramconfig.Load(dir, "", nvramconfig.Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, nvramconfig.DefaultConfig(), cfg)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	content := []byte(`{
		// comments are fine, this is JSONC
		"interface": "mtd",
		"section_size": 2048,
	}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, nvramconfig.ConfigFileName), content, 0o644))

	cfg, err := nvramconfig.Load(dir, "", nvramconfig.Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "mtd", cfg.Interface)
	assert.Equal(t, uint64(2048), cfg.SectionSize)
}

func TestLoad_CLIOverridesWinOverProjectConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	content := []byte(`{"interface": "mtd"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, nvramconfig.ConfigFileName), content, 0o644))

	cfg, err := nvramconfig.Load(dir, "", nvramconfig.Config{Interface: "efi"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "efi", cfg.Interface)
}

func TestLoad_ExplicitConfigPathMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := nvramconfig.Load(dir, "missing.json", nvramconfig.Config{}, nil)
	require.Error(t, err)
}

func TestLoad_ExplicitlyZeroSectionSizeIsRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	content := []byte(`{"section_size": 0}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, nvramconfig.ConfigFileName), content, 0o644))

	_, err := nvramconfig.Load(dir, "", nvramconfig.Config{}, nil)
	require.Error(t, err)
}

func TestFormatConfig_ProducesValidJSON(t *testing.T) {
	t.Parallel()

	out, err := nvramconfig.FormatConfig(nvramconfig.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, out, "\"interface\"")
}

package nsgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvramkv/nvram/internal/nsgate"
	"github.com/nvramkv/nvram/pkg/nvram"
)

func TestGate_UserNamespaceForbidsSysPrefix(t *testing.T) {
	t.Parallel()

	g := nsgate.New("")

	require.ErrorIs(t, g.CheckWrite("user", "SYS_FOO"), nvram.ErrInvalidArgument)
	require.NoError(t, g.CheckWrite("user", "FOO"))
}

func TestGate_SystemNamespaceRequiresPrefixAndUnlock(t *testing.T) {
	t.Parallel()

	locked := nsgate.New("")
	assert.ErrorIs(t, locked.CheckWrite("system", "SYS_FOO"), nvram.ErrPermissionDenied)
	assert.ErrorIs(t, locked.CheckWrite("system", "FOO"), nvram.ErrInvalidArgument)

	unlocked := nsgate.New(nsgate.UnlockSentinel)
	assert.NoError(t, unlocked.CheckWrite("system", "SYS_FOO"))
	assert.ErrorIs(t, unlocked.CheckWrite("system", "FOO"), nvram.ErrInvalidArgument)
}

func TestGate_UnlockRequiresExactSentinel(t *testing.T) {
	t.Parallel()

	// A value merely different from the sentinel does not unlock — this
	// is the point where the original driver's strcmp(...) != 0 check
	// is inverted; this port intentionally does not reproduce that.
	g := nsgate.New("not-the-sentinel")

	assert.ErrorIs(t, g.CheckWrite("system", "SYS_FOO"), nvram.ErrPermissionDenied)
}

func TestGate_ReadsAreAlwaysAllowed(t *testing.T) {
	t.Parallel()

	g := nsgate.New("")

	assert.NoError(t, g.CheckRead("system", "SYS_FOO"))
	assert.NoError(t, g.CheckRead("user", "FOO"))
}

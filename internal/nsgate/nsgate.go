// Package nsgate implements the namespace gate policy: the rule that
// keeps writes to system-reserved keys from an unprivileged caller,
// while leaving reads unrestricted.
//
// Grounded on the original CLI's system_unlocked() check in main.c, but
// deliberately NOT bit-for-bit faithful to it: the original compares the
// NVRAM_SYSTEM_UNLOCK environment variable with strcmp(...) != 0 against
// its unlock sentinel, which backwards from what the surrounding code
// clearly intends — it treats "set to anything other than the sentinel"
// as unlocked, and "set to exactly the sentinel, or unset" as locked.
// That reads as a bug in the original rather than an intended security
// posture, so this port implements the evidently-intended policy
// instead: unlocked iff the variable is set and equal to the sentinel.
package nsgate

import (
	"fmt"
	"strings"

	"github.com/nvramkv/nvram/pkg/nvram"
)

// SysPrefix is the key prefix reserved for the system namespace.
const SysPrefix = "SYS_"

// UnlockSentinel is the value NVRAM_SYSTEM_UNLOCK must hold to permit
// writes to system-namespace keys.
const UnlockSentinel = "16440"

// Gate enforces namespace policy for one CLI invocation's environment.
type Gate struct {
	unlocked bool
}

// New builds a Gate from the raw value of NVRAM_SYSTEM_UNLOCK (as read
// by the caller; nsgate does not touch the environment itself).
func New(systemUnlockEnv string) Gate {
	return Gate{unlocked: systemUnlockEnv == UnlockSentinel}
}

// IsSystemKey reports whether key belongs to the system namespace.
func IsSystemKey(key string) bool {
	return strings.HasPrefix(key, SysPrefix)
}

// CheckWrite returns nil if key may be written under this gate's
// namespace and unlock state, or a description of why not.
//
// Policy:
//   - In the system namespace, a key must carry the SYS_ prefix (else
//     ErrInvalidArgument: the caller named a key that doesn't belong to
//     the namespace it selected), and the gate must be unlocked (else
//     ErrPermissionDenied: the key is the right shape but access is
//     denied).
//   - In the user namespace, a key must NOT carry the SYS_ prefix
//     (ErrInvalidArgument).
func (g Gate) CheckWrite(namespace string, key string) error {
	isSys := IsSystemKey(key)

	switch namespace {
	case "system":
		if !isSys {
			return errBadKey(key, "system namespace requires the SYS_ prefix")
		}

		if !g.unlocked {
			return errLocked(key, "system namespace is locked (set NVRAM_SYSTEM_UNLOCK)")
		}
	case "user":
		if isSys {
			return errBadKey(key, "user namespace forbids the SYS_ prefix")
		}
	}

	return nil
}

// CheckRead always returns nil: reads are unrestricted in both
// namespaces.
func (g Gate) CheckRead(namespace string, key string) error {
	return nil
}

func errBadKey(key, reason string) error {
	return fmt.Errorf("%w: %s: %s", nvram.ErrInvalidArgument, key, reason)
}

func errLocked(key, reason string) error {
	return fmt.Errorf("%w: %s: %s", nvram.ErrPermissionDenied, key, reason)
}

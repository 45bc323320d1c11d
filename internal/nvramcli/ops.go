package nvramcli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nvramkv/nvram/internal/nsgate"
	"github.com/nvramkv/nvram/pkg/nvram"
)

// Op is a single queued operation, mirroring the original driver's
// operation queue (--set/--get/--del/--list can be repeated). RunOps
// runs a slice of Ops in slice order; cmd/nvram builds that slice with
// all sets first, then gets, then dels, then list.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
}

// OpKind identifies what an [Op] does.
type OpKind int

const (
	OpSet OpKind = iota
	OpGet
	OpDel
	OpList
)

// RunOps executes ops in order against store, gated by gate for the
// given namespace ("system" or "user"). Any Set or Del that actually
// mutates the working copy triggers a single trailing Commit once all
// operations have run, matching the original CLI's single-commit-per-
// invocation behavior.
func RunOps(ctx context.Context, o *IO, store *nvram.Store, gate nsgate.Gate, namespace string, ops []Op) error {
	var dirty bool

	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			if err := gate.CheckWrite(namespace, op.Key); err != nil {
				return err
			}

			if err := store.Set([]byte(op.Key), []byte(op.Value)); err != nil {
				return err
			}

			dirty = true

		case OpDel:
			if err := gate.CheckWrite(namespace, op.Key); err != nil {
				return err
			}

			if !store.Remove([]byte(op.Key)) {
				return fmt.Errorf("%w: %q", nvram.ErrNotFound, op.Key)
			}

			dirty = true

		case OpGet:
			if err := gate.CheckRead(namespace, op.Key); err != nil {
				return err
			}

			val, err := store.Get([]byte(op.Key))
			if err != nil {
				return err
			}

			o.Println(formatField(val))

		case OpList:
			for _, e := range store.List() {
				o.Printf("%s=%s\n", formatField(e.Key), formatField(e.Value))
			}
		}
	}

	if dirty {
		if err := store.Commit(ctx); err != nil {
			return err
		}
	}

	return nil
}

// formatField renders a key or value the way the original CLI's
// print_entry did: string-typed fields (trailing 0x00) print as their
// text with the terminator stripped, everything else prints as
// "0x"-prefixed hex.
func formatField(b []byte) string {
	if nvram.IsStringTyped(b) {
		return strings.TrimSuffix(string(b), "\x00")
	}

	return "0x" + hex.EncodeToString(b)
}

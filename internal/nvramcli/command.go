// Package nvramcli implements the nvram command-line surface: flag
// parsing and the set/get/del/list operations, on top of a
// [*nvram.Store]. Environment variables are read by cmd/nvram, not here.
//
// Grounded on the teacher's internal/cli Command/IO pattern (a Command
// bundles its flag set with an Exec function and a unified Run/help
// path), ported from the teacher's hand-rolled flag loop in main.c to
// github.com/spf13/pflag, the flags library the rest of the corpus
// reaches for.
package nvramcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/nvramkv/nvram/pkg/nvram"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp prints "nvram <cmd> --help" output.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: nvram", c.Usage)
	o.Println()
	o.Println(c.Short)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command, returning a process exit
// code (see [ExitCode]).
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)

		return ExitInvalidArgument
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return ExitCode(err)
	}

	return 0
}

// Process exit codes, chosen to let scripts distinguish "not found" and
// "permission denied" from a generic failure, the way the original
// driver's errno-as-exit-code convention did.
const (
	ExitOK               = 0
	ExitGenericError     = 1
	ExitInvalidArgument  = 2
	ExitNotFound         = 3
	ExitPermissionDenied = 4
	ExitCorrupt          = 5
	ExitIO               = 6
	ExitUnsupported      = 7
)

// ExitCode classifies err into a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, nvram.ErrInvalidArgument):
		return ExitInvalidArgument
	case errors.Is(err, nvram.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, nvram.ErrPermissionDenied):
		return ExitPermissionDenied
	case errors.Is(err, nvram.ErrCorrupt):
		return ExitCorrupt
	case errors.Is(err, nvram.ErrIO):
		return ExitIO
	case errors.Is(err, nvram.ErrUnsupported):
		return ExitUnsupported
	default:
		return ExitGenericError
	}
}

// Command nvram is the command-line interface to the dual-section
// key/value store: a port of the original platform CLI's flat,
// repeatable-flag operation queue (--set/--get/--del/--list, one
// trailing commit) onto [pflag] and [nvram.Store]. All --set operations
// run before any --del, each flag's occurrences in the order given.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/nvramkv/nvram/internal/fslock"
	"github.com/nvramkv/nvram/internal/nsgate"
	"github.com/nvramkv/nvram/internal/nvramcli"
	"github.com/nvramkv/nvram/internal/nvramconfig"
	"github.com/nvramkv/nvram/internal/nvramlog"
	"github.com/nvramkv/nvram/pkg/medium/efi"
	"github.com/nvramkv/nvram/pkg/medium/file"
	"github.com/nvramkv/nvram/pkg/medium/mtd"
	"github.com/nvramkv/nvram/pkg/nvram"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	o := nvramcli.NewIO(stdout, stderr)
	ctx := context.Background()

	fs := flag.NewFlagSet("nvram", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		sets       []string
		gets       []string
		dels       []string
		listFlag   bool
		sysFlag    bool
		userFlag   bool
		ifaceFlag  string
		formatFlag string
		sysA, sysB string
		usrA, usrB string
		configPath string
	)

	fs.StringArrayVar(&sets, "set", nil, "set key=value (repeatable)")
	fs.StringArrayVar(&gets, "get", nil, "get key (repeatable)")
	fs.StringArrayVar(&dels, "del", nil, "delete key (repeatable)")
	fs.BoolVar(&listFlag, "list", false, "list all entries")
	fs.BoolVar(&sysFlag, "sys", false, "operate on the system namespace")
	fs.BoolVar(&userFlag, "user", false, "operate on the user namespace (default)")
	fs.StringVar(&ifaceFlag, "interface", "", "storage medium: file, mtd, or efi")
	fs.StringVar(&formatFlag, "format", "", "wire format: v2, legacy, or platform")
	fs.StringVar(&sysA, "sys_a", "", "override path for system section A")
	fs.StringVar(&sysB, "sys_b", "", "override path for system section B")
	fs.StringVar(&usrA, "user_a", "", "override path for user section A")
	fs.StringVar(&usrB, "user_b", "", "override path for user section B")
	fs.StringVar(&configPath, "config", "", "path to an explicit config file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		o.ErrPrintln("error:", err)
		return nvramcli.ExitInvalidArgument
	}

	if sysFlag && userFlag {
		o.ErrPrintln("error: --sys and --user are mutually exclusive")
		return nvramcli.ExitInvalidArgument
	}

	ops, err := buildOps(sets, gets, dels, listFlag)
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitInvalidArgument
	}

	namespace := "user"
	if sysFlag {
		namespace = "system"
	}

	wd, err := os.Getwd()
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitIO
	}

	cliOverrides := nvramconfig.Config{
		Interface:      ifaceFlag,
		Format:         formatFlag,
		SystemSectionA: sysA,
		SystemSectionB: sysB,
		UserSectionA:   usrA,
		UserSectionB:   usrB,
	}
	if v := os.Getenv("NVRAM_INTERFACE"); v != "" && cliOverrides.Interface == "" {
		cliOverrides.Interface = v
	}
	if v := os.Getenv("NVRAM_FORMAT"); v != "" && cliOverrides.Format == "" {
		cliOverrides.Format = v
	}

	cfg, err := nvramconfig.Load(wd, configPath, cliOverrides, os.Environ())
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitInvalidArgument
	}

	log := nvramlog.New(stderr, os.Getenv("NVRAM_DEBUG") != "")
	log.Debugf("config: interface=%s format=%s namespace=%s", cfg.Interface, cfg.Format, namespace)

	pathA, pathB := cfg.UserSectionA, cfg.UserSectionB
	if namespace == "system" {
		pathA, pathB = cfg.SystemSectionA, cfg.SystemSectionB
	}

	lock, err := fslock.Acquire(pathA)
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitIO
	}
	defer lock.Release()

	mediumA, mediumB, err := openMedia(cfg.Interface, pathA, pathB, cfg.SectionSize)
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitCode(err)
	}

	store, err := nvram.OpenFormat(ctx, cfg.Format, mediumA, mediumB)
	if err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitCode(err)
	}
	defer store.Close()

	gate := nsgate.New(os.Getenv("NVRAM_SYSTEM_UNLOCK"))

	if err := nvramcli.RunOps(ctx, o, store, gate, namespace, ops); err != nil {
		o.ErrPrintln("error:", err)
		return nvramcli.ExitCode(err)
	}

	return nvramcli.ExitOK
}

// buildOps turns the flat, repeatable-flag queue into an ordered op
// list. A single run must not mix read operations (--get, --list) with
// write operations (--set, --del), nor mix --get with --list — these
// are rejected here, before any medium or store is opened.
func buildOps(sets, gets, dels []string, list bool) ([]nvramcli.Op, error) {
	writes := len(sets) + len(dels)
	reads := len(gets)
	if list {
		reads++
	}

	if writes > 0 && reads > 0 {
		return nil, fmt.Errorf("%w: cannot mix --set/--del with --get/--list in one run", nvram.ErrInvalidArgument)
	}

	if len(gets) > 0 && list {
		return nil, fmt.Errorf("%w: cannot mix --get with --list in one run", nvram.ErrInvalidArgument)
	}

	var ops []nvramcli.Op

	for _, kv := range sets {
		key, value, ok := splitKV(kv)
		if !ok {
			return nil, fmt.Errorf("--set expects key=value, got %q", kv)
		}

		ops = append(ops, nvramcli.Op{Kind: nvramcli.OpSet, Key: key, Value: value})
	}

	for _, k := range gets {
		ops = append(ops, nvramcli.Op{Kind: nvramcli.OpGet, Key: k})
	}

	for _, k := range dels {
		ops = append(ops, nvramcli.Op{Kind: nvramcli.OpDel, Key: k})
	}

	if list {
		ops = append(ops, nvramcli.Op{Kind: nvramcli.OpList})
	}

	return ops, nil
}

func splitKV(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}

	return "", "", false
}

func openMedia(iface, pathA, pathB string, size uint64) (a, b nvram.Medium, err error) {
	switch iface {
	case "", "file":
		fa, err := file.New(pathA, size)
		if err != nil {
			return nil, nil, err
		}

		fb, err := file.New(pathB, size)
		if err != nil {
			return nil, nil, err
		}

		return fa, fb, nil

	case "mtd":
		gpio := os.Getenv("NVRAM_WP_GPIO")

		ma, err := mtd.New(pathA, size, gpio)
		if err != nil {
			return nil, nil, err
		}

		mb, err := mtd.New(pathB, size, gpio)
		if err != nil {
			return nil, nil, err
		}

		return ma, mb, nil

	case "efi":
		ea, err := efi.New(pathA, size)
		if err != nil {
			return nil, nil, err
		}

		eb, err := efi.New(pathB, size)
		if err != nil {
			return nil, nil, err
		}

		return ea, eb, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown interface %q", nvram.ErrInvalidArgument, iface)
	}
}

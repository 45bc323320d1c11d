// Command nvramsh is an interactive REPL over a [nvram.Store], useful
// for poking at a section pair during bring-up without re-invoking the
// nvram CLI for every operation.
//
// Grounded on cmd/sloty's liner-based REPL loop: a prompt, a command
// history file in $HOME, and a flat switch over whitespace-split
// command words. Supplemental to the spec's CLI surface — the original
// driver has no interactive mode.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/nvramkv/nvram/internal/fslock"
	"github.com/nvramkv/nvram/pkg/medium/file"
	"github.com/nvramkv/nvram/pkg/nvram"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: nvramsh <section-a> <section-b> [section-size]")
	}

	sectionSize := uint64(64 * 1024)
	if len(args) >= 3 {
		n, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid section-size: %w", err)
		}

		sectionSize = n
	}

	lock, err := fslock.Acquire(args[0])
	if err != nil {
		return err
	}
	defer lock.Release()

	mediumA, err := file.New(args[0], sectionSize)
	if err != nil {
		return err
	}

	mediumB, err := file.New(args[1], sectionSize)
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := nvram.Open(ctx, mediumA, mediumB)
	if err != nil {
		return err
	}
	defer store.Close()

	r := &repl{store: store, ctx: ctx}

	return r.Run()
}

type repl struct {
	store *nvram.Store
	ctx   context.Context
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".nvramsh_history")
}

func (r *repl) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	active, hasActive := r.store.ActiveSection()

	fmt.Printf("nvramsh - active=%v has_active=%v\n", active, hasActive)
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("nvramsh> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		cmdArgs := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "set":
			r.cmdSet(cmdArgs)

		case "get":
			r.cmdGet(cmdArgs)

		case "del", "delete":
			r.cmdDel(cmdArgs)

		case "list", "ls":
			r.cmdList()

		case "commit":
			r.cmdCommit()

		case "active":
			a, ok := r.store.ActiveSection()
			fmt.Printf("active=%v has_active=%v\n", a, ok)

		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  set <key> <value>   Set a key's value")
	fmt.Println("  get <key>           Get a key's value")
	fmt.Println("  del <key>           Delete a key")
	fmt.Println("  list                List all entries")
	fmt.Println("  commit              Persist the working copy")
	fmt.Println("  active              Show the active section")
	fmt.Println("  exit / quit / q     Exit")
}

func (r *repl) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set <key> <value>")
		return
	}

	if err := r.store.Set([]byte(args[0]), []byte(args[1])); err != nil {
		fmt.Println("error:", err)
	}
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return
	}

	v, err := r.store.Get([]byte(args[0]))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(formatField(v))
}

func (r *repl) cmdDel(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: del <key>")
		return
	}

	if !r.store.Remove([]byte(args[0])) {
		fmt.Println("not found")
	}
}

func (r *repl) cmdList() {
	for _, e := range r.store.List() {
		fmt.Printf("%s=%s\n", formatField(e.Key), formatField(e.Value))
	}
}

func (r *repl) cmdCommit() {
	if err := r.store.Commit(r.ctx); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("committed")
}

func formatField(b []byte) string {
	if nvram.IsStringTyped(b) {
		return strings.TrimSuffix(string(b), "\x00")
	}

	return fmt.Sprintf("0x%x", b)
}

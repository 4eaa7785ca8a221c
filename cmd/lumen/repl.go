package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/chazu/lumen/internal/config"
	"github.com/chazu/lumen/internal/history"
	"github.com/chazu/lumen/internal/vm"
)

// runREPLCommand implements spec.md §6's REPL contract — read one line,
// interpret it, loop — grounded on the teacher's runREPL (cmd/mag/main.go)
// but without its multi-line method-definition accumulation, since this
// language has no method bodies to accumulate. ":history" is the one
// REPL meta-command, backed by internal/history (SPEC_FULL.md §3.3).
func runREPLCommand(cfg *config.Config, printStats bool, historyPath string) int {
	machine := newVM(cfg)
	store := openCache(cfg)

	var hist *history.Store
	if historyPath != "" {
		h, err := history.Open(historyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			hist = h
			defer hist.Close()
		}
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) == ":history" {
			printHistory(hist)
			continue
		}

		result, traceID, printed := interpretWithStats(machine, store, line, printStats)

		if hist != nil {
			_ = hist.Append(history.Entry{
				Line:    line,
				Status:  statusFor(result),
				Printed: printed,
				TraceID: traceID.String(),
			})
		}
	}

	if interactive {
		fmt.Println()
	}
	return exitOK
}

func statusFor(result vm.Result) history.Status {
	switch result {
	case vm.OK:
		return history.StatusOK
	case vm.CompileError:
		return history.StatusCompileError
	default:
		return history.StatusRuntimeError
	}
}

func printHistory(hist *history.Store) {
	if hist == nil {
		fmt.Println("history is disabled (pass -history <path> to enable it)")
		return
	}
	entries, err := hist.Recent(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history error: %v\n", err)
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%d\t%s\t%s\n", e.ID, e.Status, e.Line)
	}
}

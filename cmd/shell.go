package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/report"
	"github.com/pable/nfl-tackle-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("tacklemetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	repl(os.Stdin, os.Stdout, db)
	return nil
}

// repl reads commands from in until EOF or exit.
func repl(in io.Reader, out io.Writer, db *storage.DB) {
	scanner := bufio.NewScanner(in)
	for {
		cPrompt.Fprint(out, "tacklemetrics")
		cMuted.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return
		case "help":
			shellHelp(out)
		case "list":
			shellList(out, db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(out, "usage: show <hash-prefix> [--position <pos>] [--player <nflId>]")
				continue
			}
			var position string
			var playerID int64
			for i := 1; i+1 < len(args); i++ {
				switch args[i] {
				case "--position":
					position = args[i+1]
				case "--player":
					playerID, _ = strconv.ParseInt(args[i+1], 10, 64)
				}
			}
			if err := showRun(out, db, args[0], position, playerID); err != nil {
				cError.Fprintf(out, "error: %v\n", err)
			}
		case "positions":
			if len(args) == 0 {
				cError.Fprintln(out, "usage: positions <hash-prefix>")
				continue
			}
			if err := showPositions(out, db, args[0]); err != nil {
				cError.Fprintf(out, "error: %v\n", err)
			}
		case "player":
			if len(args) == 0 {
				cError.Fprintln(out, "usage: player <nflId> [<nflId>...]")
				continue
			}
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					cError.Fprintf(out, "invalid nflId %q\n", arg)
					continue
				}
				if err := showPlayer(out, db, id); err != nil {
					cError.Fprintf(out, "error: %v\n", err)
				}
			}
		default:
			cWarn.Fprintf(out, "unknown command %q, type 'help'\n", cmd)
		}
	}
}

func shellHelp(out io.Writer) {
	fmt.Fprintln(out)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored runs"},
		{"show <hash-prefix>", "show a run's feature table"},
		{"show <hash-prefix> --position <pos>", "same, one position only"},
		{"show <hash-prefix> --player <nflId>", "same, highlighting one player"},
		{"positions <hash-prefix>", "per-position averages and thresholds"},
		{"player <nflId> [...]", "one or more players across stored runs"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(out, "  ")
		cCmd.Fprintf(out, "%-38s", r.cmd)
		fmt.Fprintln(out, r.desc)
	}
	fmt.Fprintln(out)
}

func shellList(out io.Writer, db *storage.DB) {
	runs, err := db.ListRuns()
	if err != nil {
		cError.Fprintf(out, "error: %v\n", err)
		return
	}
	if len(runs) == 0 {
		cMuted.Fprintln(out, "No runs stored yet.")
		return
	}
	report.PrintRunList(out, runs)
}

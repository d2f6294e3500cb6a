// Command lmsctl is a terminal client for the library backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ntuclms/lms-client/internal/infrastructure/config"
	"github.com/ntuclms/lms-client/internal/infrastructure/db"
	"github.com/ntuclms/lms-client/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliOptions struct {
	server string
	debug  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one lmsctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, command, rest, err := parseArgs(args)
	if errors.Is(err, errShowUsage) {
		printUsage(stderr)
		if len(args) == 0 {
			return 1
		}
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr)
		return 1
	}

	if command == "version" {
		fmt.Fprintf(stdout, "lmsctl %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if opts.server != "" {
		cfg.APIURL = opts.server
	}
	level := cfg.LogLevel
	if opts.debug {
		level = "debug"
	}
	log := logger.New(logger.Options{
		Level:     level,
		Pretty:    cfg.LogPretty,
		Output:    stderr,
		Component: "lmsctl",
	})

	store, closeStore, err := db.OpenTokenStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: open token store: %v\n", err)
		return 1
	}
	defer closeStore()

	a := newApp(cfg.APIURL, store, log, stdout, stderr)
	if err := a.exec(ctx, command, rest); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

var errShowUsage = errors.New("show usage")

func parseArgs(args []string) (cliOptions, string, []string, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("lmsctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.server, "server", "", "backend API base URL")
	fs.BoolVar(&opts.debug, "debug", false, "log every request")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, "", nil, errShowUsage
		}
		return opts, "", nil, err
	}
	if fs.NArg() == 0 {
		return opts, "", nil, errShowUsage
	}
	return opts, fs.Arg(0), fs.Args()[1:], nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: lmsctl [--server <url>] [--debug] <command>

Session:
  login <username> <password>
  register --name <name> --email <email> <username> <password>
  logout
  whoami                    Check the stored session with the backend
  validate                  Ask the backend whether the token is accepted;
                            a rejected token is removed from the session

Catalog:
  books [--title t] [--author a] [--isbn i] [--available]
  book <id>

Member:
  dashboard | profile | fines | eligibility
  loans [--history]
  borrow <bookId> | renew <loanId> | return <loanId>
  profile-update --name <name> --email <email> [--password <pw>] <username>

Admin:
  admin dashboard | stats | overview | overdue | update-overdue
  admin members [search <name>]
  admin member <id>
  admin member-add --name <n> --email <e> --password <pw> [--role USER|ADMIN] <username>
  admin member-update --name <n> --email <e> [--status s] [--role r] <id> <username>
  admin member-renew <id> | member-delete <id>
  admin books [search --title t --author a --isbn i]
  admin book-add --isbn <i> --title <t> --author <a>
  admin book-update --isbn <i> --title <t> --author <a> [--available] <id>
  admin book-delete <id>
  admin loans [search <memberName>]
  admin loan-create <memberId> <isbn>
  admin loan-extend <id> | loan-delete <id>

  version

Configuration is read from the environment (LMS_API_URL, TOKEN_STORE, ...).
`)
}

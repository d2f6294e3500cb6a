package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
	"github.com/ntuclms/lms-client/internal/core/service"
	"github.com/ntuclms/lms-client/internal/infrastructure/httpclient"
	"github.com/ntuclms/lms-client/internal/infrastructure/metrics"
)

const sessionExpiredNotice = "session expired, run lmsctl login"

var (
	errLoginRequired = errors.New("not logged in, run lmsctl login")
	errAdminRequired = errors.New("this command requires the ADMIN role")
)

// app holds the client stack for one invocation.
type app struct {
	auth    ports.AuthService
	catalog ports.CatalogService
	member  ports.MemberService
	admin   ports.AdminService
	out     io.Writer
}

func newApp(apiURL string, store ports.TokenStore, log zerolog.Logger, stdout, stderr io.Writer) *app {
	session := service.NewSession(store, log)
	obs := metrics.CountingObserver(sessionNotice(stderr))
	d := httpclient.NewDispatcher(apiURL, session, log, httpclient.WithObserver(obs))

	return &app{
		auth:    service.NewAuthService(d, session, obs, log),
		catalog: service.NewCatalogService(d),
		member:  service.NewMemberService(d),
		admin:   service.NewAdminService(d),
		out:     stdout,
	}
}

// sessionNotice sends the user back to login when the backend drops the
// session.
func sessionNotice(w io.Writer) ports.SessionObserver {
	return ports.ObserverFunc(func(reason ports.InvalidationReason) {
		if reason == ports.ReasonAuthenticationFailed {
			fmt.Fprintln(w, sessionExpiredNotice)
		}
	})
}

func (a *app) exec(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.runLogin(ctx, args)
	case "register":
		return a.runRegister(ctx, args)
	case "logout":
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		return a.print(map[string]string{"status": "logged out"})
	case "whoami":
		id, err := a.auth.Restore(ctx)
		if err != nil {
			return errLoginRequired
		}
		return a.print(id)
	case "validate":
		// A rejected token is dropped whatever status the backend used.
		_, err := a.auth.Restore(ctx)
		return a.print(map[string]bool{"valid": err == nil})
	case "books":
		return a.runBooks(ctx, args)
	case "book":
		id, err := oneID(args, "book <id>")
		if err != nil {
			return err
		}
		return a.result(a.catalog.GetBook(ctx, id))
	case "admin":
		if err := a.requireRole(ctx, (*domain.Identity).IsAdmin, errAdminRequired); err != nil {
			return err
		}
		return a.runAdmin(ctx, args)
	}

	if err := a.requireRole(ctx, (*domain.Identity).IsUser, errLoginRequired); err != nil {
		return err
	}
	return a.runMember(ctx, command, args)
}

// requireRole gates commands on the identity decoded from the held token.
// The backend still enforces roles on every call.
func (a *app) requireRole(ctx context.Context, allowed func(*domain.Identity) bool, denied error) error {
	id, err := a.auth.Current(ctx)
	if err != nil {
		return errLoginRequired
	}
	if !allowed(id) {
		return denied
	}
	return nil
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: lmsctl login <username> <password>")
	}
	return a.result(a.auth.Login(ctx, args[0], args[1]))
}

func (a *app) runRegister(ctx context.Context, args []string) error {
	var reg domain.Registration
	fs := newFlagSet("register")
	fs.StringVar(&reg.Name, "name", "", "full name")
	fs.StringVar(&reg.Email, "email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: lmsctl register --name <name> --email <email> <username> <password>")
	}
	reg.Username, reg.Password = fs.Arg(0), fs.Arg(1)
	return a.result(a.auth.Register(ctx, reg))
}

func (a *app) runBooks(ctx context.Context, args []string) error {
	var q domain.BookQuery
	var available bool
	fs := newFlagSet("books")
	bookQueryFlags(fs, &q)
	fs.BoolVar(&available, "available", false, "only books on the shelf")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case q != (domain.BookQuery{}):
		return a.result(a.catalog.SearchBooks(ctx, q))
	case available:
		return a.result(a.catalog.AvailableBooks(ctx))
	default:
		return a.result(a.catalog.ListBooks(ctx))
	}
}

func (a *app) runMember(ctx context.Context, command string, args []string) error {
	switch command {
	case "dashboard":
		return a.result(a.member.Dashboard(ctx))
	case "profile":
		return a.result(a.member.Profile(ctx))
	case "profile-update":
		var in domain.ProfileUpdate
		fs := newFlagSet("profile-update")
		fs.StringVar(&in.Name, "name", "", "full name")
		fs.StringVar(&in.Email, "email", "", "email address")
		fs.StringVar(&in.Password, "password", "", "new password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: lmsctl profile-update --name <name> --email <email> [--password <pw>] <username>")
		}
		in.Username = fs.Arg(0)
		return a.result(a.member.UpdateProfile(ctx, in))
	case "loans":
		var history bool
		fs := newFlagSet("loans")
		fs.BoolVar(&history, "history", false, "include returned loans")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if history {
			return a.result(a.member.LoanHistory(ctx))
		}
		return a.result(a.member.CurrentLoans(ctx))
	case "borrow":
		id, err := oneID(args, "borrow <bookId>")
		if err != nil {
			return err
		}
		return a.result(a.member.Borrow(ctx, id))
	case "renew":
		id, err := oneID(args, "renew <loanId>")
		if err != nil {
			return err
		}
		return a.result(a.member.Renew(ctx, id))
	case "return":
		id, err := oneID(args, "return <loanId>")
		if err != nil {
			return err
		}
		return a.result(a.member.Return(ctx, id))
	case "fines":
		total, err := a.member.TotalFines(ctx)
		return a.result(domain.FinesSummary{TotalFines: total}, err)
	case "eligibility":
		ok, err := a.member.Eligibility(ctx)
		return a.result(domain.Eligibility{CanBorrow: ok}, err)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) runAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: lmsctl admin <command>")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "dashboard":
		return a.result(a.admin.Dashboard(ctx))
	case "stats":
		return a.result(a.admin.Statistics(ctx))
	case "overview":
		return a.result(a.admin.Overview(ctx))
	case "overdue":
		return a.result(a.admin.OverdueLoans(ctx))
	case "update-overdue":
		return a.result(a.admin.UpdateOverdueLoans(ctx))

	case "members":
		if len(args) == 2 && args[0] == "search" {
			return a.result(a.admin.SearchMembers(ctx, args[1]))
		}
		if len(args) != 0 {
			return fmt.Errorf("usage: lmsctl admin members [search <name>]")
		}
		return a.result(a.admin.Members(ctx))
	case "member":
		id, err := oneID(args, "admin member <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.Member(ctx, id))
	case "member-add":
		in, rest, err := parseMemberInput("member-add", args)
		if err != nil {
			return err
		}
		if len(rest) != 1 {
			return fmt.Errorf("usage: lmsctl admin member-add --name <n> --email <e> --password <pw> <username>")
		}
		in.Username = rest[0]
		return a.result(a.admin.AddMember(ctx, in))
	case "member-update":
		in, rest, err := parseMemberInput("member-update", args)
		if err != nil {
			return err
		}
		if len(rest) != 2 {
			return fmt.Errorf("usage: lmsctl admin member-update --name <n> --email <e> <id> <username>")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		in.Username = rest[1]
		return a.result(a.admin.UpdateMember(ctx, id, in))
	case "member-renew":
		id, err := oneID(args, "admin member-renew <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.RenewMembership(ctx, id))
	case "member-delete":
		id, err := oneID(args, "admin member-delete <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.DeleteMember(ctx, id))

	case "books":
		if len(args) > 0 && args[0] == "search" {
			var q domain.BookQuery
			fs := newFlagSet("admin books search")
			bookQueryFlags(fs, &q)
			if err := fs.Parse(args[1:]); err != nil {
				return err
			}
			return a.result(a.admin.SearchBooks(ctx, q))
		}
		return a.result(a.admin.Books(ctx))
	case "book-add":
		in, rest, err := parseBookInput("book-add", args)
		if err != nil {
			return err
		}
		if len(rest) != 0 {
			return fmt.Errorf("usage: lmsctl admin book-add --isbn <i> --title <t> --author <a>")
		}
		return a.result(a.admin.AddBook(ctx, in))
	case "book-update":
		in, rest, err := parseBookInput("book-update", args)
		if err != nil {
			return err
		}
		id, err := oneID(rest, "admin book-update --isbn <i> --title <t> --author <a> [--available] <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.UpdateBook(ctx, id, in))
	case "book-delete":
		id, err := oneID(args, "admin book-delete <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.DeleteBook(ctx, id))

	case "loans":
		if len(args) == 2 && args[0] == "search" {
			return a.result(a.admin.SearchLoans(ctx, args[1]))
		}
		if len(args) != 0 {
			return fmt.Errorf("usage: lmsctl admin loans [search <memberName>]")
		}
		return a.result(a.admin.Loans(ctx))
	case "loan-create":
		if len(args) != 2 {
			return fmt.Errorf("usage: lmsctl admin loan-create <memberId> <isbn>")
		}
		memberID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.result(a.admin.CreateLoan(ctx, domain.LoanRequest{MemberID: memberID, ISBN: args[1]}))
	case "loan-extend":
		id, err := oneID(args, "admin loan-extend <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.ExtendLoan(ctx, id))
	case "loan-delete":
		id, err := oneID(args, "admin loan-delete <id>")
		if err != nil {
			return err
		}
		return a.result(a.admin.DeleteLoan(ctx, id))

	default:
		return fmt.Errorf("unknown admin command: %s", sub)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func bookQueryFlags(fs *flag.FlagSet, q *domain.BookQuery) {
	fs.StringVar(&q.Title, "title", "", "title contains")
	fs.StringVar(&q.Author, "author", "", "author contains")
	fs.StringVar(&q.ISBN, "isbn", "", "ISBN contains")
}

func parseMemberInput(name string, args []string) (domain.MemberInput, []string, error) {
	var in domain.MemberInput
	var role, status string
	fs := newFlagSet(name)
	fs.StringVar(&in.Name, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&role, "role", "", "USER or ADMIN")
	fs.StringVar(&status, "status", "", "ACTIVE, EXPIRED or SUSPENDED")
	if err := fs.Parse(args); err != nil {
		return in, nil, err
	}
	in.Role = domain.ParseRole(role)
	in.MembershipStatus = domain.MembershipStatus(status)
	return in, fs.Args(), nil
}

func parseBookInput(name string, args []string) (domain.BookInput, []string, error) {
	var in domain.BookInput
	fs := newFlagSet(name)
	fs.StringVar(&in.ISBN, "isbn", "", "ISBN")
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Author, "author", "", "author")
	fs.BoolVar(&in.Available, "available", true, "on the shelf")
	if err := fs.Parse(args); err != nil {
		return in, nil, err
	}
	return in, fs.Args(), nil
}

func oneID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: lmsctl %s", usage)
	}
	return parseID(args[0])
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ntuclms/lms-client/internal/api"
	"github.com/ntuclms/lms-client/internal/api/middleware"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
	"github.com/ntuclms/lms-client/internal/core/service"
	"github.com/ntuclms/lms-client/internal/infrastructure/db/memory"
	"github.com/ntuclms/lms-client/internal/infrastructure/httpclient"
)

const testSecret = "test-secret"

// client is the full client stack pointed at a running fake backend.
type client struct {
	store   *memory.TokenStore
	session *service.Session
	auth    *service.AuthService
	catalog *service.CatalogService
	member  *service.MemberService
	admin   *service.AdminService
	signals []ports.InvalidationReason
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	lib := store.New(store.WithHashCost(bcrypt.MinCost))
	if err := lib.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(lib, testSecret, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *client {
	return newClientWith(srv, memory.NewTokenStore())
}

// newClientWith starts a fresh process-like client over an existing store.
func newClientWith(srv *httptest.Server, ts *memory.TokenStore) *client {
	c := &client{store: ts}
	c.session = service.NewSession(ts, zerolog.Nop())
	obs := ports.ObserverFunc(func(r ports.InvalidationReason) { c.signals = append(c.signals, r) })
	d := httpclient.NewDispatcher(srv.URL+api.Prefix, c.session, zerolog.Nop(), httpclient.WithObserver(obs))
	c.auth = service.NewAuthService(d, c.session, obs, zerolog.Nop())
	c.catalog = service.NewCatalogService(d)
	c.member = service.NewMemberService(d)
	c.admin = service.NewAdminService(d)
	return c
}

func TestHealth(t *testing.T) {
	srv := newBackend(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminFlow(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)
	ctx := context.Background()

	id, err := c.auth.Login(ctx, store.AdminUsername, store.AdminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.Subject != store.AdminUsername || !id.IsAdmin() || id.Name != "System Administrator" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if !c.session.Holds(ctx, id) {
		t.Fatalf("session must hold the login token")
	}
	if !c.auth.ValidateToken(ctx) {
		t.Fatalf("fresh token must validate")
	}

	m, err := c.admin.AddMember(ctx, domain.MemberInput{
		Name: "Grace Hopper", Username: "grace", Email: "grace@example.com", Password: "cobol1",
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	res, err := c.admin.CreateLoan(ctx, domain.LoanRequest{MemberID: m.ID, ISBN: "9780132350884"})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if res.Loan == nil || res.Loan.Book.ISBN != "9780132350884" {
		t.Fatalf("unexpected loan result %+v", res)
	}

	found, err := c.admin.SearchMembers(ctx, "grace hop")
	if err != nil || len(found) != 1 {
		t.Fatalf("unexpected member search %+v, %v", found, err)
	}

	ov, err := c.admin.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Statistics.TotalMembers != 2 || ov.Statistics.ActiveLoans != 1 || len(ov.Loans) != 1 || len(ov.OverdueLoans) != 0 {
		t.Fatalf("unexpected overview %+v", ov)
	}

	if _, err := c.admin.ExtendLoan(ctx, res.Loan.ID); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if _, err := c.admin.DeleteLoan(ctx, res.Loan.ID); err != nil {
		t.Fatalf("delete loan: %v", err)
	}
	book, err := c.catalog.GetBook(ctx, res.Loan.Book.ID)
	if err != nil || !book.Available {
		t.Fatalf("book must be back on the shelf, got %+v, %v", book, err)
	}
}

func TestMemberFlow(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)
	ctx := context.Background()

	id, err := c.auth.Register(ctx, domain.Registration{
		Name: "Ada Lovelace", Username: "ada", Email: "ada@example.com", Password: "engine1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id.Role != domain.RoleUser || id.IsAdmin() {
		t.Fatalf("unexpected identity %+v", id)
	}

	books, err := c.catalog.SearchBooks(ctx, domain.BookQuery{Author: "hunt"})
	if err != nil || len(books) != 1 {
		t.Fatalf("unexpected search %+v, %v", books, err)
	}

	borrowed, err := c.member.Borrow(ctx, books[0].ID)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	loanID := borrowed.Loan.ID

	_, err = c.member.Borrow(ctx, books[0].ID)
	var he *domain.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusBadRequest || !strings.Contains(he.Body, "not available") {
		t.Fatalf("expected 400 with backend message, got %v", err)
	}

	renewed, err := c.member.Renew(ctx, loanID)
	if err != nil || renewed.Loan.RenewalCount != 1 {
		t.Fatalf("unexpected renew %+v, %v", renewed, err)
	}

	returned, err := c.member.Return(ctx, loanID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Loan.Status != domain.LoanReturned || returned.Fine != 0 {
		t.Fatalf("unexpected return %+v", returned)
	}

	history, err := c.member.LoanHistory(ctx)
	if err != nil || len(history) != 1 {
		t.Fatalf("unexpected history %+v, %v", history, err)
	}
	ok, err := c.member.Eligibility(ctx)
	if err != nil || !ok {
		t.Fatalf("expected member to be eligible, got %v, %v", ok, err)
	}

	d, err := c.member.Dashboard(ctx)
	if err != nil || d.Member.Username != "ada" {
		t.Fatalf("unexpected dashboard %+v, %v", d, err)
	}
}

func TestMemberCannotReachAdmin(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)
	ctx := context.Background()

	if _, err := c.auth.Register(ctx, domain.Registration{
		Name: "Linus", Username: "linus", Email: "linus@example.com", Password: "kernel1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := c.admin.Statistics(ctx)
	var he *domain.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if c.session.Get(ctx) == "" || len(c.signals) != 0 {
		t.Fatalf("a 403 must not drop the session")
	}
}

func TestForgedTokenDropsSession(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)
	ctx := context.Background()

	forged, err := middleware.IssueToken("other-secret", store.AdminUsername, string(domain.RoleAdmin), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := c.session.Set(ctx, forged); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, err = c.member.Profile(ctx)
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if c.session.Get(ctx) != "" {
		t.Fatalf("401 must clear the session")
	}
	if _, err := c.store.Load(ctx); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("401 must remove the persisted token, got %v", err)
	}
	if len(c.signals) != 1 || c.signals[0] != ports.ReasonAuthenticationFailed {
		t.Fatalf("expected one authentication_failed signal, got %v", c.signals)
	}
}

func TestRestoreRejectsStaleToken(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)
	ctx := context.Background()

	forged, err := middleware.IssueToken("other-secret", "ghost", string(domain.RoleUser), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := c.store.Save(ctx, forged); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := c.auth.Restore(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if c.session.Get(ctx) != "" {
		t.Fatalf("stale token must be dropped")
	}

	if _, err := c.auth.Login(ctx, store.AdminUsername, store.AdminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	id, err := newClientWith(srv, c.store).auth.Restore(ctx)
	if err != nil || id.Subject != store.AdminUsername {
		t.Fatalf("expected persisted admin session to restore, got %+v, %v", id, err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newBackend(t)
	c := newClient(srv)

	_, err := c.auth.Login(context.Background(), store.AdminUsername, "nope")
	var he *domain.HTTPError
	if !errors.As(err, &he) || he.Body != "Invalid username or password" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if c.session.Get(context.Background()) != "" {
		t.Fatalf("failed login must not set a session")
	}
}

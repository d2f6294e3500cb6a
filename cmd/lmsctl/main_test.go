package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ntuclms/lms-client/internal/api"
	"github.com/ntuclms/lms-client/internal/api/middleware"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/infrastructure/db/file"
)

const testSecret = "cli-test-secret"

// setup starts a seeded backend and points lmsctl at it with a file-backed
// session. It returns the token file path.
func setup(t *testing.T) string {
	t.Helper()
	lib := store.New(store.WithHashCost(bcrypt.MinCost))
	if err := lib.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(lib, testSecret, zerolog.Nop()))
	t.Cleanup(srv.Close)

	tokenFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("LMS_API_URL", srv.URL+api.Prefix)
	t.Setenv("TOKEN_STORE", "file")
	t.Setenv("TOKEN_FILE", tokenFile)
	t.Setenv("LOG_LEVEL", "disabled")
	return tokenFile
}

type invocation struct {
	code   int
	stdout string
	stderr string
}

func lmsctl(t *testing.T, args ...string) invocation {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return invocation{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestParseArgs(t *testing.T) {
	opts, cmd, rest, err := parseArgs([]string{"--server", "http://x/api", "borrow", "3"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.server != "http://x/api" || cmd != "borrow" || len(rest) != 1 || rest[0] != "3" {
		t.Fatalf("unexpected parse %+v %q %v", opts, cmd, rest)
	}

	if _, _, _, err := parseArgs(nil); !errors.Is(err, errShowUsage) {
		t.Fatalf("expected usage, got %v", err)
	}
	if _, _, _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}

func TestVersion(t *testing.T) {
	res := lmsctl(t, "version")
	if res.code != 0 || !strings.HasPrefix(res.stdout, "lmsctl dev") {
		t.Fatalf("unexpected version output %+v", res)
	}
}

func TestAdminSession(t *testing.T) {
	setup(t)

	res := lmsctl(t, "login", store.AdminUsername, store.AdminPassword)
	if res.code != 0 {
		t.Fatalf("login failed: %+v", res)
	}
	var id domain.Identity
	if err := json.Unmarshal([]byte(res.stdout), &id); err != nil || id.Subject != store.AdminUsername {
		t.Fatalf("unexpected login output %q: %v", res.stdout, err)
	}

	// A new invocation picks the session up from the token file.
	res = lmsctl(t, "admin", "stats")
	if res.code != 0 {
		t.Fatalf("admin stats failed: %+v", res)
	}
	var stats domain.Statistics
	if err := json.Unmarshal([]byte(res.stdout), &stats); err != nil || stats.TotalBooks == 0 {
		t.Fatalf("unexpected stats %q: %v", res.stdout, err)
	}

	if res = lmsctl(t, "whoami"); res.code != 0 || !strings.Contains(res.stdout, `"ADMIN"`) {
		t.Fatalf("unexpected whoami %+v", res)
	}

	if res = lmsctl(t, "logout"); res.code != 0 {
		t.Fatalf("logout failed: %+v", res)
	}
	res = lmsctl(t, "admin", "stats")
	if res.code != 1 || !strings.Contains(res.stderr, errLoginRequired.Error()) {
		t.Fatalf("expected login required after logout, got %+v", res)
	}
}

func TestMemberSession(t *testing.T) {
	setup(t)

	res := lmsctl(t, "register", "--name", "Ada Lovelace", "--email", "ada@example.com", "ada", "engine1")
	if res.code != 0 {
		t.Fatalf("register failed: %+v", res)
	}

	res = lmsctl(t, "admin", "stats")
	if res.code != 1 || !strings.Contains(res.stderr, errAdminRequired.Error()) {
		t.Fatalf("expected admin gate, got %+v", res)
	}

	res = lmsctl(t, "books", "--author", "hunt")
	var books []domain.Book
	if err := json.Unmarshal([]byte(res.stdout), &books); err != nil || len(books) != 1 {
		t.Fatalf("unexpected books %+v: %v", res, err)
	}

	bookID := books[0].ID
	if res = lmsctl(t, "borrow", strconv.FormatInt(bookID, 10)); res.code != 0 {
		t.Fatalf("borrow failed: %+v", res)
	}
	res = lmsctl(t, "borrow", strconv.FormatInt(bookID, 10))
	if res.code != 1 || !strings.Contains(res.stderr, "HTTP 400") {
		t.Fatalf("expected backend rejection, got %+v", res)
	}

	res = lmsctl(t, "loans")
	var loans []domain.Loan
	if err := json.Unmarshal([]byte(res.stdout), &loans); err != nil || len(loans) != 1 {
		t.Fatalf("unexpected loans %+v: %v", res, err)
	}
}

func TestExpiredSessionNotice(t *testing.T) {
	tokenFile := setup(t)

	forged, err := middleware.IssueToken("not-the-backend-secret", "ghost", string(domain.RoleUser), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ts := file.NewTokenStore(tokenFile, "token")
	if err := ts.Save(context.Background(), forged); err != nil {
		t.Fatalf("save: %v", err)
	}

	res := lmsctl(t, "profile")
	if res.code != 1 || !strings.Contains(res.stderr, sessionExpiredNotice) {
		t.Fatalf("expected session expired notice, got %+v", res)
	}
	if _, err := ts.Load(context.Background()); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected token file cleared, got %v", err)
	}
}

func TestValidateDropsRejectedToken(t *testing.T) {
	tokenFile := setup(t)

	forged, err := middleware.IssueToken("not-the-backend-secret", "ghost", string(domain.RoleUser), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ts := file.NewTokenStore(tokenFile, "token")
	if err := ts.Save(context.Background(), forged); err != nil {
		t.Fatalf("save: %v", err)
	}

	res := lmsctl(t, "validate")
	if res.code != 0 || !strings.Contains(res.stdout, `"valid": false`) {
		t.Fatalf("expected valid false, got %+v", res)
	}
	if _, err := ts.Load(context.Background()); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected rejected token removed, got %v", err)
	}

	if res = lmsctl(t, "login", store.AdminUsername, store.AdminPassword); res.code != 0 {
		t.Fatalf("login failed: %+v", res)
	}
	if res = lmsctl(t, "validate"); !strings.Contains(res.stdout, `"valid": true`) {
		t.Fatalf("expected valid true, got %+v", res)
	}
}

package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
	"github.com/ntuclms/lms-client/internal/core/service"
	"github.com/ntuclms/lms-client/internal/infrastructure/metrics"
)

// fakeSession is a TokenSource with call counting.
type fakeSession struct {
	mu     sync.Mutex
	token  string
	clears int
}

func (s *fakeSession) Get(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.clears++
	return nil
}

// undeletableStore keeps its token because Delete always fails.
type undeletableStore struct {
	token string
}

func (s *undeletableStore) Load(_ context.Context) (string, error) {
	if s.token == "" {
		return "", domain.ErrTokenNotFound
	}
	return s.token, nil
}

func (s *undeletableStore) Save(_ context.Context, token string) error {
	s.token = token
	return nil
}

func (s *undeletableStore) Delete(_ context.Context) error {
	return errors.New("read-only token directory")
}

type captured struct {
	method  string
	path    string
	headers http.Header
	body    string
	hasBody bool
}

func newServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.RequestURI()
		got.headers = r.Header.Clone()
		got.body = string(b)
		got.hasBody = r.ContentLength > 0
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func counterValue(t *testing.T, method, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.RequestsTotal.WithLabelValues(method, outcome).Write(&m); err != nil {
		t.Fatalf("read metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestDispatch_AttachesBearerWhenTokenHeld(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, "application/json", `{"ok":true}`)
	d := NewDispatcher(srv.URL+"/api", &fakeSession{token: "T"}, zerolog.Nop())

	if _, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/member/profile"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.path != "/api/member/profile" {
		t.Fatalf("unexpected path %q", got.path)
	}
	if h := got.headers.Get("Authorization"); h != "Bearer T" {
		t.Fatalf("expected bearer header, got %q", h)
	}
	if ct := got.headers.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if _, err := uuid.Parse(got.headers.Get("X-Request-ID")); err != nil {
		t.Fatalf("expected uuid request id, got %q", got.headers.Get("X-Request-ID"))
	}
}

func TestDispatch_OmitsBearerWithoutToken(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, "application/json", `[]`)
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())

	if _, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/books"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := got.headers["Authorization"]; ok {
		t.Fatalf("authorization header must be absent")
	}
}

func TestDispatch_BodyOnlyWhenGiven(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, "application/json", `{}`)
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, ports.Request{Method: http.MethodPost, Path: "/auth/validate"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.hasBody || got.body != "" {
		t.Fatalf("expected no body, got %q", got.body)
	}

	body := map[string]string{"username": "u", "password": "p"}
	if _, err := d.Dispatch(ctx, ports.Request{Method: http.MethodPost, Path: "/auth/login", Body: body}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.body != `{"password":"p","username":"u"}` {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestDispatch_UnauthorizedClearsSessionAndNotifiesOnce(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, "text/plain", "Unauthorized")
	session := &fakeSession{token: "T"}
	var reasons []ports.InvalidationReason
	d := NewDispatcher(srv.URL, session, zerolog.Nop(), WithObserver(ports.ObserverFunc(func(r ports.InvalidationReason) {
		reasons = append(reasons, r)
	})))
	before := counterValue(t, http.MethodGet, metrics.OutcomeAuthFailure)

	_, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/member/dashboard"})

	var ae *domain.AuthenticationError
	if !errors.As(err, &ae) || !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if err.Error() != "authentication failed" || ae.Body != "Unauthorized" {
		t.Fatalf("unexpected error %q body %q", err.Error(), ae.Body)
	}
	if session.token != "" || session.clears != 1 {
		t.Fatalf("expected session cleared once, token=%q clears=%d", session.token, session.clears)
	}
	if len(reasons) != 1 || reasons[0] != ports.ReasonAuthenticationFailed {
		t.Fatalf("expected one authentication_failed signal, got %v", reasons)
	}
	if after := counterValue(t, http.MethodGet, metrics.OutcomeAuthFailure); after != before+1 {
		t.Fatalf("expected auth_failure counter +1, got %v -> %v", before, after)
	}
}

func TestDispatch_NoBearerAfterUnauthorizedWhenDeleteFails(t *testing.T) {
	var (
		mu    sync.Mutex
		auths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Unauthorized")
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	store := &undeletableStore{token: "T"}
	session := service.NewSession(store, zerolog.Nop())
	d := NewDispatcher(srv.URL, session, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := d.Dispatch(ctx, ports.Request{Method: http.MethodGet, Path: "/member/profile"}); !errors.Is(err, domain.ErrAuthenticationFailed) {
			t.Fatalf("call %d: expected authentication failure, got %v", i, err)
		}
	}

	if store.token != "T" {
		t.Fatalf("expected the store to still hold the token, got %q", store.token)
	}
	if len(auths) != 2 || auths[0] != "Bearer T" || auths[1] != "" {
		t.Fatalf("expected bearer only on the first call, got %q", auths)
	}
}

func TestDispatch_HTTPErrorCarriesBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, "text/plain", "Bad Request")
	d := NewDispatcher(srv.URL, &fakeSession{token: "T"}, zerolog.Nop())

	_, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/x"})
	var he *domain.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.Status != http.StatusBadRequest || err.Error() != "Bad Request" {
		t.Fatalf("unexpected error %d %q", he.Status, err.Error())
	}
	if domain.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("StatusCode mismatch")
	}
}

func TestDispatch_HTTPErrorWithEmptyBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "", "")
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())

	_, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/x"})
	var he *domain.HTTPError
	if !errors.As(err, &he) || he.Body != "" {
		t.Fatalf("expected HTTPError with empty body, got %v", err)
	}
	if err.Error() != "HTTP error! status: 500" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDispatch_PlainTextPassesThrough(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "text/plain", "Plain text response")
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())

	resp, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if resp.Structured() || resp.Text() != "Plain text response" {
		t.Fatalf("unexpected response %+v", resp)
	}
	payload, err := resp.Payload()
	if err != nil || payload != "Plain text response" {
		t.Fatalf("unexpected payload %v, %v", payload, err)
	}
}

func TestDispatch_StructuredPayload(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "application/json;charset=UTF-8", `{"token":"t1","role":"ADMIN"}`)
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())

	resp, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	var out domain.AuthResult
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Token != "t1" || out.Role != domain.RoleAdmin {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestDispatch_MalformedJSONIsDecodeError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "application/json", `{"token":`)
	d := NewDispatcher(srv.URL, &fakeSession{}, zerolog.Nop())

	_, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/x"})
	var de *domain.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestDispatch_NetworkErrorWrapsCause(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	session := &fakeSession{token: "T"}
	d := NewDispatcher(url, session, zerolog.Nop())
	_, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/books"})

	var ne *domain.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Path != "/books" || errors.Unwrap(err) == nil {
		t.Fatalf("expected wrapped cause, got %+v", ne)
	}
	if session.clears != 0 {
		t.Fatalf("network errors must not clear the session")
	}
}

func TestDispatch_UsesInjectedClient(t *testing.T) {
	called := false
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/plain"}},
			Body:       io.NopCloser(strings.NewReader("pong")),
			Request:    r,
		}, nil
	})}
	d := NewDispatcher("http://backend.invalid/api", &fakeSession{}, zerolog.Nop(), WithHTTPClient(client))

	resp, err := d.Dispatch(context.Background(), ports.Request{Method: http.MethodGet, Path: "/ping"})
	if err != nil || !called || resp.Text() != "pong" {
		t.Fatalf("expected injected client to answer, got %v %v", resp, err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub token store
// ---------------------------------------------------------------------------

type stubTokenStore struct {
	mu        sync.Mutex
	token     string
	loads     int
	loadErr   error
	saveErr   error
	deleteErr error
}

func (s *stubTokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return "", s.loadErr
	}
	if s.token == "" {
		return "", domain.ErrTokenNotFound
	}
	return s.token, nil
}

func (s *stubTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *stubTokenStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.token = ""
	return nil
}

// ---------------------------------------------------------------------------
// Stub dispatcher
// ---------------------------------------------------------------------------

type stubDispatcher struct {
	mu      sync.Mutex
	calls   []ports.Request
	respond func(req ports.Request) (*ports.Response, error)
}

func (d *stubDispatcher) Dispatch(_ context.Context, req ports.Request) (*ports.Response, error) {
	d.mu.Lock()
	d.calls = append(d.calls, req)
	respond := d.respond
	d.mu.Unlock()

	if respond == nil {
		return jsonResponse(`{}`), nil
	}
	return respond(req)
}

func (d *stubDispatcher) requests() []ports.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ports.Request, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *stubDispatcher) last() ports.Request {
	reqs := d.requests()
	if len(reqs) == 0 {
		return ports.Request{}
	}
	return reqs[len(reqs)-1]
}

// routes answers by "METHOD path"; unknown routes get a 404.
func routes(m map[string]string) func(ports.Request) (*ports.Response, error) {
	return func(req ports.Request) (*ports.Response, error) {
		body, ok := m[req.Method+" "+req.Path]
		if !ok {
			return nil, &domain.HTTPError{Status: 404, Body: "Not Found"}
		}
		return jsonResponse(body), nil
	}
}

func jsonResponse(body string) *ports.Response {
	return &ports.Response{Status: 200, ContentType: "application/json", Body: []byte(body)}
}

func textResponse(body string) *ports.Response {
	return &ports.Response{Status: 200, ContentType: "text/plain;charset=UTF-8", Body: []byte(body)}
}

// ---------------------------------------------------------------------------
// Observer recorder
// ---------------------------------------------------------------------------

type recordingObserver struct {
	mu      sync.Mutex
	reasons []ports.InvalidationReason
}

func (o *recordingObserver) SessionInvalidated(reason ports.InvalidationReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reasons = append(o.reasons, reason)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.reasons)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	errBoom  = errors.New("boom")
	zeroTime time.Time
)

func signedToken(subject, role string) string {
	claims := jwt.MapClaims{"sub": subject, "role": role, "exp": 4102444800}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	if err != nil {
		panic(err)
	}
	return s
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// AuthService implements login, registration, token validation and logout
// on top of the dispatcher, keeping the session in step.
type AuthService struct {
	dispatcher ports.Dispatcher
	session    *Session
	observer   ports.SessionObserver
	log        zerolog.Logger
}

func NewAuthService(dispatcher ports.Dispatcher, session *Session, observer ports.SessionObserver, log zerolog.Logger) *AuthService {
	return &AuthService{
		dispatcher: dispatcher,
		session:    session,
		observer:   observer,
		log:        log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *AuthService) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	resp, err := a.dispatcher.Dispatch(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Username: username, Password: password},
	})
	if err != nil {
		return nil, err
	}
	return a.establish(ctx, resp, username)
}

func (a *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.Identity, error) {
	resp, err := a.dispatcher.Dispatch(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   reg,
	})
	if err != nil {
		return nil, err
	}
	return a.establish(ctx, resp, reg.Username)
}

// establish stores the token from a login/register response and derives the
// identity from it.
func (a *AuthService) establish(ctx context.Context, resp *ports.Response, username string) (*domain.Identity, error) {
	if !resp.Structured() {
		return nil, domain.ErrMissingToken
	}

	var res domain.AuthResult
	if err := resp.Decode(&res); err != nil {
		return nil, &domain.DecodeError{ContentType: resp.ContentType, Err: err}
	}
	if res.Token == "" {
		return nil, domain.ErrMissingToken
	}

	if err := a.session.Set(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	id := a.identity(res, username)
	a.log.Info().
		Str("subject", id.Subject).
		Str("role", string(id.Role)).
		Msg("session established")
	return id, nil
}

// identity prefers the token payload for subject and expiry and the response
// body for role, user id and name. Opaque tokens fall back to the response
// and the submitted username.
func (a *AuthService) identity(res domain.AuthResult, username string) *domain.Identity {
	id, err := decodeIdentity(res.Token)
	if err != nil {
		a.log.Debug().Err(err).Msg("token payload not decodable")
		id = domain.NewIdentity(res.Token, username, "", time.Time{})
	}
	if id.Subject == "" {
		id.Subject = username
	}
	if res.Role != "" {
		id.Role = domain.ParseRole(string(res.Role))
	}
	id.UserID = res.UserID
	id.Name = res.Name
	return id
}

func (a *AuthService) ValidateToken(ctx context.Context) bool {
	if a.session.Get(ctx) == "" {
		return false
	}

	_, err := a.dispatcher.Dispatch(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "/auth/validate",
	})
	if err != nil {
		a.log.Debug().Err(err).Msg("token rejected")
		return false
	}
	return true
}

// Logout drops the session locally. No server call is made.
func (a *AuthService) Logout(ctx context.Context) error {
	err := a.session.Clear(ctx)
	if a.observer != nil {
		a.observer.SessionInvalidated(ports.ReasonLogout)
	}
	return err
}

// Current re-derives the identity from the token held right now.
func (a *AuthService) Current(ctx context.Context) (*domain.Identity, error) {
	token := a.session.Get(ctx)
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	id, err := decodeIdentity(token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return id, nil
}

// Restore is the startup check: a persisted token is kept only if the
// backend still accepts it and its payload can be read.
func (a *AuthService) Restore(ctx context.Context) (*domain.Identity, error) {
	if a.session.Get(ctx) == "" {
		return nil, domain.ErrNotAuthenticated
	}

	if !a.ValidateToken(ctx) {
		a.drop(ctx)
		return nil, domain.ErrNotAuthenticated
	}

	id, err := a.Current(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("auth check failed")
		a.drop(ctx)
		return nil, domain.ErrNotAuthenticated
	}
	return id, nil
}

func (a *AuthService) drop(ctx context.Context) {
	if err := a.session.Clear(ctx); err != nil {
		a.log.Error().Err(err).Msg("failed to clear session")
	}
}

package ports

import "context"

// TokenStore persists the bearer token across process restarts.
//
// Load returns domain.ErrTokenNotFound when nothing is stored. Delete of a
// missing token is not an error.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// InvalidationReason says why a session was dropped.
type InvalidationReason string

const (
	ReasonAuthenticationFailed InvalidationReason = "authentication_failed"
	ReasonLogout               InvalidationReason = "logout"
)

// SessionObserver is told when the session is invalidated so the UI can
// return to its login entry point.
type SessionObserver interface {
	SessionInvalidated(reason InvalidationReason)
}

// ObserverFunc adapts a function to SessionObserver.
type ObserverFunc func(reason InvalidationReason)

func (f ObserverFunc) SessionInvalidated(reason InvalidationReason) { f(reason) }

// TokenSource is the part of the session the dispatcher reads and
// invalidates.
type TokenSource interface {
	Get(ctx context.Context) string
	Clear(ctx context.Context) error
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMissingToken         = errors.New("response did not contain a token")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTokenNotFound        = errors.New("token not found")
)

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthenticationError is returned when the backend rejects the request's
// credentials. The session has already been cleared when callers see it.
type AuthenticationError struct {
	Body string
}

func (e *AuthenticationError) Error() string {
	return ErrAuthenticationFailed.Error()
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// HTTPError is any other non-success response. Body is the response text
// verbatim and is what gets shown to the user.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return e.Body
}

// DecodeError is returned when a response declared as JSON cannot be parsed.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by err, or 0 when err did not
// come from an HTTP response.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	var ae *AuthenticationError
	if errors.As(err, &ae) {
		return 401
	}
	return 0
}

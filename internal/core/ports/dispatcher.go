package ports

import (
	"context"
	"encoding/json"
	"mime"
	"strings"
)

// Request describes one backend call. Path is relative to the API base URL
// and may carry a query string. A nil Body sends no body at all.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response is a successful (2xx) backend response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Structured reports whether the response declared a JSON body.
func (r *Response) Structured() bool {
	return IsJSONContentType(r.ContentType)
}

// Text returns the raw body unchanged.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a structured body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Payload returns the decoded JSON value for structured responses and the
// raw text otherwise.
func (r *Response) Payload() (any, error) {
	if !r.Structured() {
		return r.Text(), nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// IsJSONContentType reports whether a Content-Type header value denotes JSON.
func IsJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(strings.ToLower(ct), "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Dispatcher sends one request to the backend and normalises its outcome.
//
// Errors are one of *domain.NetworkError, *domain.AuthenticationError,
// *domain.HTTPError or *domain.DecodeError.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Response, error)
}

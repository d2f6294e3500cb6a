package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

var errNotJSON = errors.New("expected a JSON response")

// call dispatches req and decodes the JSON payload into out. Typed endpoints
// always answer with JSON, so a text body here is a decode failure.
func call(ctx context.Context, d ports.Dispatcher, req ports.Request, out any) error {
	resp, err := d.Dispatch(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if !resp.Structured() {
		return &domain.DecodeError{ContentType: resp.ContentType, Err: errNotJSON}
	}
	if err := resp.Decode(out); err != nil {
		return &domain.DecodeError{ContentType: resp.ContentType, Err: err}
	}
	return nil
}

func idPath(prefix string, id int64, suffix ...string) string {
	p := prefix + "/" + strconv.FormatInt(id, 10)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// bookSearchPath keeps the parameter order title, author, isbn and leaves
// out empty terms.
func bookSearchPath(base string, q domain.BookQuery) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+url.QueryEscape(value))
		}
	}
	add("title", q.Title)
	add("author", q.Author)
	add("isbn", q.ISBN)
	return base + "?" + strings.Join(parts, "&")
}

func nameSearchPath(base, name string) string {
	return base + "?name=" + url.QueryEscape(name)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

// result prints v as JSON when err is nil.
func (a *app) result(v any, err error) error {
	if err != nil {
		return describe(err)
	}
	return a.print(v)
}

func (a *app) print(v any) error {
	return PrintJSON(a.out, v)
}

func PrintJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe turns a client error into the line shown to the user. Backend
// rejections are shown verbatim.
func describe(err error) error {
	var he *domain.HTTPError
	var ne *domain.NetworkError
	switch {
	case errors.As(err, &he):
		return fmt.Errorf("%s (HTTP %d)", he.Error(), he.Status)
	case errors.As(err, &ne):
		return fmt.Errorf("backend unreachable: %w", ne)
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return errLoginRequired
	default:
		return err
	}
}

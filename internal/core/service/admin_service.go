package service

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// AdminService drives the administrative screens. The admin role is
// enforced by the backend; the client only forwards the bearer token.
type AdminService struct {
	dispatcher ports.Dispatcher
	validator  *inputValidator
}

func NewAdminService(dispatcher ports.Dispatcher) *AdminService {
	return &AdminService{dispatcher: dispatcher, validator: newInputValidator()}
}

func (s *AdminService) send(ctx context.Context, method, path string, body, out any) error {
	return call(ctx, s.dispatcher, ports.Request{Method: method, Path: path, Body: body}, out)
}

func (s *AdminService) result(ctx context.Context, method, path string, body any) (*domain.ActionResult, error) {
	var out domain.ActionResult
	if err := s.send(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) loans(ctx context.Context, path string) ([]domain.Loan, error) {
	var out []domain.Loan
	err := s.send(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (s *AdminService) Dashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	var out domain.AdminDashboard
	if err := s.send(ctx, http.MethodGet, "/admin/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var out domain.Statistics
	if err := s.send(ctx, http.MethodGet, "/admin/statistics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Overview loads statistics, overdue loans and all loans in parallel. Each
// fetch is an independent dispatch; the first error is returned once all of
// them have finished.
func (s *AdminService) Overview(ctx context.Context) (*domain.Overview, error) {
	var (
		g  errgroup.Group
		ov domain.Overview
	)

	g.Go(func() error {
		stats, err := s.Statistics(ctx)
		ov.Statistics = stats
		return err
	})
	g.Go(func() error {
		overdue, err := s.OverdueLoans(ctx)
		ov.OverdueLoans = overdue
		return err
	})
	g.Go(func() error {
		all, err := s.Loans(ctx)
		ov.Loans = all
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

// ── Members ──────────────────────────────────────────────────────────────────

func (s *AdminService) Members(ctx context.Context) ([]domain.Member, error) {
	var out []domain.Member
	err := s.send(ctx, http.MethodGet, "/admin/members", nil, &out)
	return out, err
}

func (s *AdminService) Member(ctx context.Context, id int64) (*domain.Member, error) {
	var out domain.Member
	if err := s.send(ctx, http.MethodGet, idPath("/admin/members", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) AddMember(ctx context.Context, in domain.MemberInput) (*domain.Member, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	var out domain.Member
	if err := s.send(ctx, http.MethodPost, "/admin/members", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) UpdateMember(ctx context.Context, id int64, in domain.MemberInput) (*domain.Member, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	var out domain.Member
	if err := s.send(ctx, http.MethodPut, idPath("/admin/members", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) DeleteMember(ctx context.Context, id int64) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodDelete, idPath("/admin/members", id), nil)
}

func (s *AdminService) RenewMembership(ctx context.Context, id int64) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodPut, idPath("/admin/members", id, "renew"), nil)
}

func (s *AdminService) SearchMembers(ctx context.Context, name string) ([]domain.Member, error) {
	var out []domain.Member
	err := s.send(ctx, http.MethodGet, nameSearchPath("/admin/members/search", name), nil, &out)
	return out, err
}

// ── Books ────────────────────────────────────────────────────────────────────

func (s *AdminService) Books(ctx context.Context) ([]domain.Book, error) {
	var out []domain.Book
	err := s.send(ctx, http.MethodGet, "/admin/books", nil, &out)
	return out, err
}

func (s *AdminService) AddBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	var out domain.Book
	if err := s.send(ctx, http.MethodPost, "/admin/books", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) UpdateBook(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	var out domain.Book
	if err := s.send(ctx, http.MethodPut, idPath("/admin/books", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) DeleteBook(ctx context.Context, id int64) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodDelete, idPath("/admin/books", id), nil)
}

func (s *AdminService) SearchBooks(ctx context.Context, q domain.BookQuery) ([]domain.Book, error) {
	var out []domain.Book
	err := s.send(ctx, http.MethodGet, bookSearchPath("/admin/books/search", q), nil, &out)
	return out, err
}

// ── Loans ────────────────────────────────────────────────────────────────────

func (s *AdminService) Loans(ctx context.Context) ([]domain.Loan, error) {
	return s.loans(ctx, "/admin/loans")
}

func (s *AdminService) CreateLoan(ctx context.Context, in domain.LoanRequest) (*domain.ActionResult, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	return s.result(ctx, http.MethodPost, "/admin/loans", in)
}

func (s *AdminService) ExtendLoan(ctx context.Context, id int64) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodPut, idPath("/admin/loans", id, "extend"), nil)
}

func (s *AdminService) DeleteLoan(ctx context.Context, id int64) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodDelete, idPath("/admin/loans", id), nil)
}

func (s *AdminService) SearchLoans(ctx context.Context, memberName string) ([]domain.Loan, error) {
	return s.loans(ctx, nameSearchPath("/admin/loans/search", memberName))
}

func (s *AdminService) OverdueLoans(ctx context.Context) ([]domain.Loan, error) {
	return s.loans(ctx, "/admin/loans/overdue")
}

func (s *AdminService) UpdateOverdueLoans(ctx context.Context) (*domain.ActionResult, error) {
	return s.result(ctx, http.MethodPost, "/admin/loans/update-overdue", nil)
}

package service

import (
	"context"
	"net/http"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// MemberService is the logged-in member's self-service API.
type MemberService struct {
	dispatcher ports.Dispatcher
	validator  *inputValidator
}

func NewMemberService(dispatcher ports.Dispatcher) *MemberService {
	return &MemberService{dispatcher: dispatcher, validator: newInputValidator()}
}

func (s *MemberService) get(ctx context.Context, path string, out any) error {
	return call(ctx, s.dispatcher, ports.Request{Method: http.MethodGet, Path: path}, out)
}

func (s *MemberService) action(ctx context.Context, path string) (*domain.ActionResult, error) {
	var out domain.ActionResult
	if err := call(ctx, s.dispatcher, ports.Request{Method: http.MethodPost, Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemberService) Dashboard(ctx context.Context) (*domain.MemberDashboard, error) {
	var out domain.MemberDashboard
	if err := s.get(ctx, "/member/dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemberService) Profile(ctx context.Context) (*domain.Member, error) {
	var out domain.Member
	if err := s.get(ctx, "/member/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemberService) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Member, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	var out domain.Member
	req := ports.Request{Method: http.MethodPut, Path: "/member/profile", Body: in}
	if err := call(ctx, s.dispatcher, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemberService) CurrentLoans(ctx context.Context) ([]domain.Loan, error) {
	var out []domain.Loan
	err := s.get(ctx, "/member/loans", &out)
	return out, err
}

func (s *MemberService) LoanHistory(ctx context.Context) ([]domain.Loan, error) {
	var out []domain.Loan
	err := s.get(ctx, "/member/loans/history", &out)
	return out, err
}

func (s *MemberService) Borrow(ctx context.Context, bookID int64) (*domain.ActionResult, error) {
	return s.action(ctx, idPath("/member/borrow", bookID))
}

func (s *MemberService) Renew(ctx context.Context, loanID int64) (*domain.ActionResult, error) {
	return s.action(ctx, idPath("/member/renew", loanID))
}

func (s *MemberService) Return(ctx context.Context, loanID int64) (*domain.ActionResult, error) {
	return s.action(ctx, idPath("/member/return", loanID))
}

func (s *MemberService) TotalFines(ctx context.Context) (float64, error) {
	var out domain.FinesSummary
	if err := s.get(ctx, "/member/fines", &out); err != nil {
		return 0, err
	}
	return out.TotalFines, nil
}

func (s *MemberService) Eligibility(ctx context.Context) (bool, error) {
	var out domain.Eligibility
	if err := s.get(ctx, "/member/eligibility", &out); err != nil {
		return false, err
	}
	return out.CanBorrow, nil
}

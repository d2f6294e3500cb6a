package ports

import (
	"context"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

// CatalogService covers the public book catalog.
type CatalogService interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	AvailableBooks(ctx context.Context) ([]domain.Book, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	SearchBooks(ctx context.Context, q domain.BookQuery) ([]domain.Book, error)
}

// MemberService covers member self-service.
type MemberService interface {
	Dashboard(ctx context.Context) (*domain.MemberDashboard, error)
	Profile(ctx context.Context) (*domain.Member, error)
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Member, error)
	CurrentLoans(ctx context.Context) ([]domain.Loan, error)
	LoanHistory(ctx context.Context) ([]domain.Loan, error)
	Borrow(ctx context.Context, bookID int64) (*domain.ActionResult, error)
	Renew(ctx context.Context, loanID int64) (*domain.ActionResult, error)
	Return(ctx context.Context, loanID int64) (*domain.ActionResult, error)
	TotalFines(ctx context.Context) (float64, error)
	Eligibility(ctx context.Context) (bool, error)
}

// AdminService covers the administrative screens.
type AdminService interface {
	Dashboard(ctx context.Context) (*domain.AdminDashboard, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
	Overview(ctx context.Context) (*domain.Overview, error)

	Members(ctx context.Context) ([]domain.Member, error)
	Member(ctx context.Context, id int64) (*domain.Member, error)
	AddMember(ctx context.Context, in domain.MemberInput) (*domain.Member, error)
	UpdateMember(ctx context.Context, id int64, in domain.MemberInput) (*domain.Member, error)
	DeleteMember(ctx context.Context, id int64) (*domain.ActionResult, error)
	RenewMembership(ctx context.Context, id int64) (*domain.ActionResult, error)
	SearchMembers(ctx context.Context, name string) ([]domain.Member, error)

	Books(ctx context.Context) ([]domain.Book, error)
	AddBook(ctx context.Context, in domain.BookInput) (*domain.Book, error)
	UpdateBook(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error)
	DeleteBook(ctx context.Context, id int64) (*domain.ActionResult, error)
	SearchBooks(ctx context.Context, q domain.BookQuery) ([]domain.Book, error)

	Loans(ctx context.Context) ([]domain.Loan, error)
	CreateLoan(ctx context.Context, in domain.LoanRequest) (*domain.ActionResult, error)
	ExtendLoan(ctx context.Context, id int64) (*domain.ActionResult, error)
	DeleteLoan(ctx context.Context, id int64) (*domain.ActionResult, error)
	SearchLoans(ctx context.Context, memberName string) ([]domain.Loan, error)
	OverdueLoans(ctx context.Context) ([]domain.Loan, error)
	UpdateOverdueLoans(ctx context.Context) (*domain.ActionResult, error)
}

package domain

import (
	"strings"
	"time"
)

// LoanStatus mirrors the backend's loan lifecycle.
type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
	LoanOverdue  LoanStatus = "OVERDUE"
)

const dateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD, the backend's LocalDate
// format.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Loan is one borrowing of a book by a member.
type Loan struct {
	ID           int64      `json:"id"`
	Member       *Member    `json:"member,omitempty"`
	Book         *Book      `json:"book,omitempty"`
	BorrowDate   Date       `json:"borrowDate,omitzero"`
	DueDate      Date       `json:"dueDate,omitzero"`
	ReturnDate   *Date      `json:"returnDate,omitempty"`
	Fine         float64    `json:"fine"`
	Status       LoanStatus `json:"status"`
	Renewable    bool       `json:"renewable"`
	RenewalCount int        `json:"renewalCount"`
}

// LoanRequest is the admin payload for lending a book to a member.
type LoanRequest struct {
	MemberID int64  `json:"memberId" validate:"required,gt=0"`
	ISBN     string `json:"isbn"     validate:"required,min=10,max=17"`
}

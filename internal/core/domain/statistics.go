package domain

// MemberDashboard is the member landing page payload.
type MemberDashboard struct {
	Member       *Member `json:"member"`
	CurrentLoans []Loan  `json:"currentLoans"`
	LoanHistory  []Loan  `json:"loanHistory"`
	TotalFines   float64 `json:"totalFines"`
	CanBorrow    bool    `json:"canBorrow"`
}

// AdminDashboard is the admin landing page payload.
type AdminDashboard struct {
	TotalMembers int    `json:"totalMembers"`
	TotalBooks   int    `json:"totalBooks"`
	TotalLoans   int    `json:"totalLoans"`
	OverdueLoans int    `json:"overdueLoans"`
	RecentLoans  []Loan `json:"recentLoans"`
}

type Statistics struct {
	TotalMembers   int `json:"totalMembers"`
	ActiveMembers  int `json:"activeMembers"`
	TotalBooks     int `json:"totalBooks"`
	AvailableBooks int `json:"availableBooks"`
	TotalLoans     int `json:"totalLoans"`
	ActiveLoans    int `json:"activeLoans"`
	OverdueLoans   int `json:"overdueLoans"`
}

// Overview bundles the admin data that is loaded together.
type Overview struct {
	Statistics   *Statistics `json:"statistics"`
	OverdueLoans []Loan      `json:"overdueLoans"`
	Loans        []Loan      `json:"loans"`
}

// ActionResult is the envelope the backend returns for state-changing
// member and admin actions.
type ActionResult struct {
	Message string  `json:"message"`
	Loan    *Loan   `json:"loan,omitempty"`
	Member  *Member `json:"member,omitempty"`
	Fine    float64 `json:"fine,omitempty"`
}

type FinesSummary struct {
	TotalFines float64 `json:"totalFines"`
}

type Eligibility struct {
	CanBorrow bool `json:"canBorrow"`
}

// AuthResult is the backend's response to login, register and validate.
type AuthResult struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

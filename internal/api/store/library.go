// Package store holds the fake backend's in-memory library state.
//
// Business rules follow the production backend: a loan runs for
// LoanPeriodDays, can be renewed MaxRenewals times while not overdue, and
// accrues FinePerDay for every day past its due date. A member may borrow
// while their membership is active, nothing is overdue and they hold fewer
// than MaxActiveLoans books.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

const (
	LoanPeriodDays = 14
	MaxRenewals    = 2
	FinePerDay     = 1.0
	MaxActiveLoans = 3
	recentLoans    = 10
)

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrBookUnavailable    = errors.New("book is not available")
	ErrCannotBorrow       = errors.New("cannot borrow: check membership status, active loans, or overdue books")
	ErrAlreadyReturned    = errors.New("loan already returned")
	ErrNotRenewable       = errors.New("loan cannot be renewed (overdue, max renewals reached, or not renewable)")
	ErrLoanOverdue        = errors.New("cannot extend overdue loan")
	ErrNotLoanOwner       = errors.New("not authorized to change this loan")
	ErrISBNTaken          = errors.New("book with this ISBN already exists")
)

type member struct {
	domain.Member
	passwordHash []byte
}

type loan struct {
	id           int64
	memberID     int64
	bookID       int64
	borrowDate   time.Time
	dueDate      time.Time
	returnDate   time.Time
	fine         float64
	status       domain.LoanStatus
	renewable    bool
	renewalCount int
}

func (l *loan) returned() bool { return !l.returnDate.IsZero() }

func (l *loan) overdue(today time.Time) bool {
	return !l.returned() && today.After(l.dueDate)
}

func (l *loan) canRenew(today time.Time) bool {
	return l.renewable && l.renewalCount < MaxRenewals && !l.overdue(today) && !l.returned()
}

func (l *loan) calculateFine(today time.Time) {
	if l.overdue(today) {
		days := int(today.Sub(l.dueDate).Hours() / 24)
		l.fine = float64(days) * FinePerDay
		l.status = domain.LoanOverdue
	}
}

// Library is a goroutine-safe in-memory backend.
type Library struct {
	mu       sync.RWMutex
	members  map[int64]*member
	books    map[int64]*domain.Book
	loans    map[int64]*loan
	nextID   int64
	now      func() time.Time
	hashCost int
}

type Option func(*Library)

// WithClock overrides the wall clock used for loan dates.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithHashCost sets the bcrypt cost for stored passwords.
func WithHashCost(cost int) Option {
	return func(l *Library) { l.hashCost = cost }
}

func New(opts ...Option) *Library {
	l := &Library{
		members:  make(map[int64]*member),
		books:    make(map[int64]*domain.Book),
		loans:    make(map[int64]*loan),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Library) today() time.Time {
	t := l.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (l *Library) id() int64 {
	l.nextID++
	return l.nextID
}

func (l *Library) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), l.hashCost)
}

// ── Auth ──────────────────────────────────────────────────────────────────────

// Authenticate checks a username/password pair.
func (l *Library) Authenticate(username, password string) (*domain.Member, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := l.byUsername(username)
	if m == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	out := m.Member
	return &out, nil
}

// Register creates a self-service account. The role defaults to USER.
func (l *Library) Register(reg domain.Registration) (*domain.Member, error) {
	return l.AddMember(domain.MemberInput{
		Name:     reg.Name,
		Username: reg.Username,
		Email:    reg.Email,
		Password: reg.Password,
		Role:     reg.Role,
	})
}

// MemberByUsername looks up the account behind a token subject.
func (l *Library) MemberByUsername(username string) (*domain.Member, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := l.byUsername(username)
	if m == nil {
		return nil, ErrMemberNotFound
	}
	out := m.Member
	return &out, nil
}

func (l *Library) byUsername(username string) *member {
	for _, m := range l.members {
		if m.Username == username {
			return m
		}
	}
	return nil
}

func (l *Library) byEmail(email string) *member {
	for _, m := range l.members {
		if strings.EqualFold(m.Email, email) {
			return m
		}
	}
	return nil
}

// ── Members ───────────────────────────────────────────────────────────────────

func (l *Library) Members() []domain.Member {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.memberList(func(*member) bool { return true })
}

func (l *Library) Member(id int64) (*domain.Member, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	out := m.Member
	return &out, nil
}

func (l *Library) SearchMembers(name string) []domain.Member {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.memberList(func(m *member) bool { return containsFold(m.Name, name) })
}

func (l *Library) memberList(keep func(*member) bool) []domain.Member {
	out := make([]domain.Member, 0, len(l.members))
	for _, m := range l.members {
		if keep(m) {
			out = append(out, m.Member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Library) AddMember(in domain.MemberInput) (*domain.Member, error) {
	hash, err := l.hash(in.Password)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byUsername(in.Username) != nil {
		return nil, ErrUsernameTaken
	}
	if l.byEmail(in.Email) != nil {
		return nil, ErrEmailTaken
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	status := in.MembershipStatus
	if status == "" {
		status = domain.MembershipActive
	}
	m := &member{
		Member: domain.Member{
			ID:               l.id(),
			Name:             in.Name,
			Username:         in.Username,
			Email:            in.Email,
			RegistrationDate: domain.Date{Time: l.today()},
			Role:             role,
			MembershipStatus: status,
		},
		passwordHash: hash,
	}
	l.members[m.ID] = m
	out := m.Member
	return &out, nil
}

// UpdateMember replaces a member's details. An empty password keeps the
// current one.
func (l *Library) UpdateMember(id int64, in domain.MemberInput) (*domain.Member, error) {
	var hash []byte
	if in.Password != "" {
		h, err := l.hash(in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	if other := l.byUsername(in.Username); other != nil && other.ID != id {
		return nil, ErrUsernameTaken
	}
	if other := l.byEmail(in.Email); other != nil && other.ID != id {
		return nil, ErrEmailTaken
	}

	m.Name = in.Name
	m.Username = in.Username
	m.Email = in.Email
	if in.Role != "" {
		m.Role = in.Role
	}
	if in.MembershipStatus != "" {
		m.MembershipStatus = in.MembershipStatus
	}
	if hash != nil {
		m.passwordHash = hash
	}
	out := m.Member
	return &out, nil
}

// UpdateProfile applies a member's self-service changes.
func (l *Library) UpdateProfile(username string, in domain.ProfileUpdate) (*domain.Member, error) {
	l.mu.RLock()
	m := l.byUsername(username)
	l.mu.RUnlock()
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return l.UpdateMember(m.ID, domain.MemberInput{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
}

// DeleteMember removes a member together with their loans. Books on loan
// become available again.
func (l *Library) DeleteMember(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.members[id]; !ok {
		return ErrMemberNotFound
	}
	for lid, ln := range l.loans {
		if ln.memberID != id {
			continue
		}
		if !ln.returned() {
			if b, ok := l.books[ln.bookID]; ok {
				b.Available = true
			}
		}
		delete(l.loans, lid)
	}
	delete(l.members, id)
	return nil
}

// RenewMembership reactivates a membership from today.
func (l *Library) RenewMembership(id int64) (*domain.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	m.RegistrationDate = domain.Date{Time: l.today()}
	m.MembershipStatus = domain.MembershipActive
	out := m.Member
	return &out, nil
}

// ── Books ─────────────────────────────────────────────────────────────────────

func (l *Library) Books() []domain.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bookList(func(*domain.Book) bool { return true })
}

func (l *Library) AvailableBooks() []domain.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bookList(func(b *domain.Book) bool { return b.Available })
}

// SearchBooks matches every non-empty term, case-insensitively.
func (l *Library) SearchBooks(q domain.BookQuery) []domain.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bookList(func(b *domain.Book) bool {
		return containsFold(b.Title, q.Title) &&
			containsFold(b.Author, q.Author) &&
			containsFold(b.ISBN, q.ISBN)
	})
}

func (l *Library) bookList(keep func(*domain.Book) bool) []domain.Book {
	out := make([]domain.Book, 0, len(l.books))
	for _, b := range l.books {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (l *Library) Book(id int64) (*domain.Book, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	out := *b
	return &out, nil
}

func (l *Library) AddBook(in domain.BookInput) (*domain.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byISBN(in.ISBN) != nil {
		return nil, ErrISBNTaken
	}
	b := &domain.Book{
		ID:        l.id(),
		ISBN:      in.ISBN,
		Title:     in.Title,
		Author:    in.Author,
		Available: true,
	}
	l.books[b.ID] = b
	out := *b
	return &out, nil
}

func (l *Library) UpdateBook(id int64, in domain.BookInput) (*domain.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	if other := l.byISBN(in.ISBN); other != nil && other.ID != id {
		return nil, ErrISBNTaken
	}
	b.ISBN = in.ISBN
	b.Title = in.Title
	b.Author = in.Author
	b.Available = in.Available
	out := *b
	return &out, nil
}

func (l *Library) DeleteBook(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books[id]; !ok {
		return ErrBookNotFound
	}
	for lid, ln := range l.loans {
		if ln.bookID == id {
			delete(l.loans, lid)
		}
	}
	delete(l.books, id)
	return nil
}

func (l *Library) byISBN(isbn string) *domain.Book {
	for _, b := range l.books {
		if b.ISBN == isbn {
			return b
		}
	}
	return nil
}

// ── Loans ─────────────────────────────────────────────────────────────────────

// Borrow lends a book to the member behind username.
func (l *Library) Borrow(username string, bookID int64) (*domain.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.byUsername(username)
	if m == nil {
		return nil, ErrMemberNotFound
	}
	b, ok := l.books[bookID]
	if !ok {
		return nil, ErrBookNotFound
	}
	return l.lend(m, b)
}

// CreateLoan lends the book with isbn to a member on an admin's behalf.
func (l *Library) CreateLoan(memberID int64, isbn string) (*domain.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[memberID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	b := l.byISBN(isbn)
	if b == nil {
		return nil, ErrBookNotFound
	}
	return l.lend(m, b)
}

func (l *Library) lend(m *member, b *domain.Book) (*domain.Loan, error) {
	if !l.canBorrow(m) {
		return nil, ErrCannotBorrow
	}
	if !b.Available {
		return nil, ErrBookUnavailable
	}
	today := l.today()
	ln := &loan{
		id:         l.id(),
		memberID:   m.ID,
		bookID:     b.ID,
		borrowDate: today,
		dueDate:    today.AddDate(0, 0, LoanPeriodDays),
		status:     domain.LoanActive,
		renewable:  true,
	}
	b.Available = false
	l.loans[ln.id] = ln
	return l.view(ln), nil
}

// Renew extends the member's own loan by one loan period.
func (l *Library) Renew(username string, loanID int64) (*domain.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, err := l.ownLoan(username, loanID)
	if err != nil {
		return nil, err
	}
	today := l.today()
	if !ln.canRenew(today) {
		return nil, ErrNotRenewable
	}
	ln.renewalCount++
	ln.dueDate = ln.dueDate.AddDate(0, 0, LoanPeriodDays)
	if ln.renewalCount >= MaxRenewals {
		ln.renewable = false
	}
	return l.view(ln), nil
}

// Return closes the member's own loan and computes any fine.
func (l *Library) Return(username string, loanID int64) (*domain.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, err := l.ownLoan(username, loanID)
	if err != nil {
		return nil, err
	}
	today := l.today()
	ln.calculateFine(today)
	ln.returnDate = today
	ln.status = domain.LoanReturned
	if b, ok := l.books[ln.bookID]; ok {
		b.Available = true
	}
	return l.view(ln), nil
}

func (l *Library) ownLoan(username string, loanID int64) (*loan, error) {
	ln, ok := l.loans[loanID]
	if !ok {
		return nil, ErrLoanNotFound
	}
	m := l.byUsername(username)
	if m == nil || ln.memberID != m.ID {
		return nil, ErrNotLoanOwner
	}
	if ln.returned() {
		return nil, ErrAlreadyReturned
	}
	return ln, nil
}

// ExtendLoan pushes the due date of an open, non-overdue loan.
func (l *Library) ExtendLoan(id int64) (*domain.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	if ln.returned() {
		return nil, ErrAlreadyReturned
	}
	if ln.overdue(l.today()) {
		return nil, ErrLoanOverdue
	}
	ln.dueDate = ln.dueDate.AddDate(0, 0, LoanPeriodDays)
	return l.view(ln), nil
}

func (l *Library) DeleteLoan(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	if !ln.returned() {
		if b, ok := l.books[ln.bookID]; ok {
			b.Available = true
		}
	}
	delete(l.loans, id)
	return nil
}

// Loans returns every loan, newest first.
func (l *Library) Loans() []domain.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loanList(func(*loan) bool { return true })
}

func (l *Library) SearchLoans(name string) []domain.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loanList(func(ln *loan) bool {
		m, ok := l.members[ln.memberID]
		return ok && containsFold(m.Name, name)
	})
}

func (l *Library) OverdueLoans() []domain.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	today := l.today()
	return l.loanList(func(ln *loan) bool { return ln.overdue(today) })
}

// UpdateOverdueLoans marks every overdue loan and refreshes its fine.
func (l *Library) UpdateOverdueLoans() {
	l.mu.Lock()
	defer l.mu.Unlock()
	today := l.today()
	for _, ln := range l.loans {
		ln.calculateFine(today)
	}
}

func (l *Library) CurrentLoans(username string) []domain.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.byUsername(username)
	if m == nil {
		return []domain.Loan{}
	}
	return l.loanList(func(ln *loan) bool { return ln.memberID == m.ID && !ln.returned() })
}

func (l *Library) LoanHistory(username string) []domain.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.byUsername(username)
	if m == nil {
		return []domain.Loan{}
	}
	return l.loanList(func(ln *loan) bool { return ln.memberID == m.ID })
}

func (l *Library) TotalFines(username string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.byUsername(username)
	if m == nil {
		return 0
	}
	return l.fines(m.ID)
}

func (l *Library) fines(memberID int64) float64 {
	var total float64
	for _, ln := range l.loans {
		if ln.memberID == memberID {
			total += ln.fine
		}
	}
	return total
}

func (l *Library) CanBorrow(username string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.byUsername(username)
	return m != nil && l.canBorrow(m)
}

func (l *Library) canBorrow(m *member) bool {
	if m.MembershipStatus != domain.MembershipActive {
		return false
	}
	today := l.today()
	active := 0
	for _, ln := range l.loans {
		if ln.memberID != m.ID || ln.returned() {
			continue
		}
		if ln.overdue(today) {
			return false
		}
		active++
	}
	return active < MaxActiveLoans
}

func (l *Library) loanList(keep func(*loan) bool) []domain.Loan {
	out := make([]domain.Loan, 0, len(l.loans))
	for _, ln := range l.loans {
		if keep(ln) {
			out = append(out, *l.view(ln))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BorrowDate.Equal(out[j].BorrowDate.Time) {
			return out[i].BorrowDate.After(out[j].BorrowDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (l *Library) view(ln *loan) *domain.Loan {
	out := &domain.Loan{
		ID:           ln.id,
		BorrowDate:   domain.Date{Time: ln.borrowDate},
		DueDate:      domain.Date{Time: ln.dueDate},
		Fine:         ln.fine,
		Status:       ln.status,
		Renewable:    ln.renewable,
		RenewalCount: ln.renewalCount,
	}
	if ln.returned() {
		out.ReturnDate = &domain.Date{Time: ln.returnDate}
	}
	if m, ok := l.members[ln.memberID]; ok {
		mm := m.Member
		out.Member = &mm
	}
	if b, ok := l.books[ln.bookID]; ok {
		bb := *b
		out.Book = &bb
	}
	return out
}

// ── Dashboards ────────────────────────────────────────────────────────────────

func (l *Library) MemberDashboard(username string) (*domain.MemberDashboard, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := l.byUsername(username)
	if m == nil {
		return nil, ErrMemberNotFound
	}
	mm := m.Member
	return &domain.MemberDashboard{
		Member:       &mm,
		CurrentLoans: l.loanList(func(ln *loan) bool { return ln.memberID == m.ID && !ln.returned() }),
		LoanHistory:  l.loanList(func(ln *loan) bool { return ln.memberID == m.ID }),
		TotalFines:   l.fines(m.ID),
		CanBorrow:    l.canBorrow(m),
	}, nil
}

func (l *Library) AdminDashboard() *domain.AdminDashboard {
	l.mu.RLock()
	defer l.mu.RUnlock()

	today := l.today()
	all := l.loanList(func(*loan) bool { return true })
	recent := all
	if len(recent) > recentLoans {
		recent = recent[:recentLoans]
	}
	return &domain.AdminDashboard{
		TotalMembers: len(l.members),
		TotalBooks:   len(l.books),
		TotalLoans:   len(all),
		OverdueLoans: len(l.loanList(func(ln *loan) bool { return ln.overdue(today) })),
		RecentLoans:  recent,
	}
}

func (l *Library) Statistics() *domain.Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	today := l.today()
	s := &domain.Statistics{
		TotalMembers: len(l.members),
		TotalBooks:   len(l.books),
		TotalLoans:   len(l.loans),
	}
	for _, m := range l.members {
		if m.MembershipStatus == domain.MembershipActive {
			s.ActiveMembers++
		}
	}
	for _, b := range l.books {
		if b.Available {
			s.AvailableBooks++
		}
	}
	for _, ln := range l.loans {
		if !ln.returned() {
			s.ActiveLoans++
		}
		if ln.overdue(today) {
			s.OverdueLoans++
		}
	}
	return s
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

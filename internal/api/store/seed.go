package store

import "github.com/ntuclms/lms-client/internal/core/domain"

// Default administrator created by Seed.
const (
	AdminUsername = "admin"
	AdminPassword = "password"
)

var sampleBooks = []domain.BookInput{
	{ISBN: "9780132350884", Title: "Clean Code", Author: "Robert C. Martin"},
	{ISBN: "9780201616224", Title: "The Pragmatic Programmer", Author: "Andrew Hunt"},
	{ISBN: "9780134190440", Title: "The Go Programming Language", Author: "Alan Donovan"},
	{ISBN: "9781491950357", Title: "Building Microservices", Author: "Sam Newman"},
	{ISBN: "9780596007126", Title: "Head First Design Patterns", Author: "Eric Freeman"},
}

// Seed creates the default administrator and a handful of books. It is a
// no-op for records that already exist.
func (l *Library) Seed() error {
	if _, err := l.MemberByUsername(AdminUsername); err != nil {
		_, err := l.AddMember(domain.MemberInput{
			Name:     "System Administrator",
			Username: AdminUsername,
			Email:    "admin@library.com",
			Password: AdminPassword,
			Role:     domain.RoleAdmin,
		})
		if err != nil {
			return err
		}
	}
	for _, b := range sampleBooks {
		if _, err := l.AddBook(b); err != nil && err != ErrISBNTaken {
			return err
		}
	}
	return nil
}

package domain

// Book is a catalog entry as returned by the backend.
type Book struct {
	ID        int64  `json:"id"`
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// BookInput is the payload for creating or updating a book.
type BookInput struct {
	ISBN      string `json:"isbn"      validate:"required,min=10,max=17"`
	Title     string `json:"title"     validate:"required,min=1,max=200"`
	Author    string `json:"author"    validate:"required,min=1,max=100"`
	Available bool   `json:"available"`
}

// BookQuery holds optional catalog search terms. Empty fields are omitted
// from the query string.
type BookQuery struct {
	Title  string
	Author string
	ISBN   string
}

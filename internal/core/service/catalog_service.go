package service

import (
	"context"
	"net/http"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
)

// CatalogService reads the public book catalog. Requests are anonymous
// unless a session happens to be held.
type CatalogService struct {
	dispatcher ports.Dispatcher
}

func NewCatalogService(dispatcher ports.Dispatcher) *CatalogService {
	return &CatalogService{dispatcher: dispatcher}
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var out []domain.Book
	err := call(ctx, s.dispatcher, ports.Request{Method: http.MethodGet, Path: "/books"}, &out)
	return out, err
}

func (s *CatalogService) AvailableBooks(ctx context.Context) ([]domain.Book, error) {
	var out []domain.Book
	err := call(ctx, s.dispatcher, ports.Request{Method: http.MethodGet, Path: "/books/available"}, &out)
	return out, err
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var out domain.Book
	if err := call(ctx, s.dispatcher, ports.Request{Method: http.MethodGet, Path: idPath("/books", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CatalogService) SearchBooks(ctx context.Context, q domain.BookQuery) ([]domain.Book, error) {
	var out []domain.Book
	err := call(ctx, s.dispatcher, ports.Request{Method: http.MethodGet, Path: bookSearchPath("/books/search", q)}, &out)
	return out, err
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
)

// BookHandler serves the public catalog.
type BookHandler struct {
	lib *store.Library
}

func NewBookHandler(lib *store.Library) *BookHandler {
	return &BookHandler{lib: lib}
}

func (h *BookHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Books())
}

func (h *BookHandler) Available(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.AvailableBooks())
}

func (h *BookHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.lib.Book(id)
	if err != nil {
		return fail("Error loading book", err)
	}
	return c.JSON(http.StatusOK, b)
}

// Search matches the title, author and isbn query parameters.
func (h *BookHandler) Search(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.SearchBooks(domain.BookQuery{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
		ISBN:   c.QueryParam("isbn"),
	}))
}

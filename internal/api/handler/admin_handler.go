package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ntuclms/lms-client/internal/api/metrics"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
)

// AdminHandler serves the /admin endpoints. Routes are guarded by RBAC.
type AdminHandler struct {
	lib *store.Library
}

func NewAdminHandler(lib *store.Library) *AdminHandler {
	return &AdminHandler{lib: lib}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.AdminDashboard())
}

func (h *AdminHandler) Statistics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Statistics())
}

// ── Members ───────────────────────────────────────────────────────────────────

func (h *AdminHandler) Members(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Members())
}

func (h *AdminHandler) Member(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.lib.Member(id)
	if err != nil {
		return fail("Error loading member", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) AddMember(c echo.Context) error {
	var req domain.MemberInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	m, err := h.lib.AddMember(req)
	if err != nil {
		return fail("Error adding member", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) UpdateMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req domain.MemberInput
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.lib.UpdateMember(id, req)
	if err != nil {
		return fail("Error updating member", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) DeleteMember(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lib.DeleteMember(id); err != nil {
		return fail("Error deleting member", err)
	}
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Member deleted successfully"})
}

func (h *AdminHandler) RenewMembership(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.lib.RenewMembership(id)
	if err != nil {
		return fail("Error renewing membership", err)
	}
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Membership renewed successfully", Member: m})
}

func (h *AdminHandler) SearchMembers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.SearchMembers(c.QueryParam("name")))
}

// ── Books ─────────────────────────────────────────────────────────────────────

func (h *AdminHandler) Books(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Books())
}

func (h *AdminHandler) AddBook(c echo.Context) error {
	var req domain.BookInput
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.lib.AddBook(req)
	if err != nil {
		return fail("Error adding book", err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) UpdateBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req domain.BookInput
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.lib.UpdateBook(id, req)
	if err != nil {
		return fail("Error updating book", err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) DeleteBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lib.DeleteBook(id); err != nil {
		return fail("Error deleting book", err)
	}
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Book deleted successfully"})
}

func (h *AdminHandler) SearchBooks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.SearchBooks(domain.BookQuery{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
		ISBN:   c.QueryParam("isbn"),
	}))
}

// ── Loans ─────────────────────────────────────────────────────────────────────

func (h *AdminHandler) Loans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.Loans())
}

func (h *AdminHandler) CreateLoan(c echo.Context) error {
	var req domain.LoanRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	loan, err := h.lib.CreateLoan(req.MemberID, req.ISBN)
	if err != nil {
		return fail("Error creating loan", err)
	}
	metrics.LoanActionsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Loan created successfully", Loan: loan})
}

func (h *AdminHandler) ExtendLoan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	loan, err := h.lib.ExtendLoan(id)
	if err != nil {
		return fail("Error extending loan", err)
	}
	metrics.LoanActionsTotal.WithLabelValues("extend").Inc()
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Loan extended successfully", Loan: loan})
}

func (h *AdminHandler) DeleteLoan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lib.DeleteLoan(id); err != nil {
		return fail("Error deleting loan", err)
	}
	metrics.LoanActionsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Loan deleted successfully"})
}

func (h *AdminHandler) SearchLoans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.SearchLoans(c.QueryParam("name")))
}

func (h *AdminHandler) OverdueLoans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.lib.OverdueLoans())
}

func (h *AdminHandler) UpdateOverdueLoans(c echo.Context) error {
	h.lib.UpdateOverdueLoans()
	return c.JSON(http.StatusOK, domain.ActionResult{Message: "Overdue loans status updated successfully"})
}

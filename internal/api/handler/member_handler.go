package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ntuclms/lms-client/internal/api/metrics"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
)

// MemberHandler serves the self-service endpoints of the logged-in member.
type MemberHandler struct {
	lib *store.Library
}

func NewMemberHandler(lib *store.Library) *MemberHandler {
	return &MemberHandler{lib: lib}
}

func (h *MemberHandler) Dashboard(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	d, err := h.lib.MemberDashboard(username)
	if err != nil {
		return fail("Error loading dashboard", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *MemberHandler) Profile(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	m, err := h.lib.MemberByUsername(username)
	if err != nil {
		return fail("Error loading profile", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) UpdateProfile(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	var req domain.ProfileUpdate
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.lib.UpdateProfile(username, req)
	if err != nil {
		return fail("Error updating profile", err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) CurrentLoans(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.lib.CurrentLoans(username))
}

func (h *MemberHandler) LoanHistory(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.lib.LoanHistory(username))
}

func (h *MemberHandler) Borrow(c echo.Context) error {
	return h.loanAction(c, "bookId", "borrow", "Error borrowing book", "Book borrowed successfully", h.lib.Borrow)
}

func (h *MemberHandler) Renew(c echo.Context) error {
	return h.loanAction(c, "loanId", "renew", "Error renewing loan", "Loan renewed successfully", h.lib.Renew)
}

func (h *MemberHandler) Return(c echo.Context) error {
	return h.loanAction(c, "loanId", "return", "Error returning book", "Book returned successfully", h.lib.Return)
}

func (h *MemberHandler) loanAction(
	c echo.Context,
	param, action, failure, success string,
	do func(username string, id int64) (*domain.Loan, error),
) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, param)
	if err != nil {
		return err
	}
	loan, err := do(username, id)
	if err != nil {
		return fail(failure, err)
	}
	metrics.LoanActionsTotal.WithLabelValues(action).Inc()

	res := domain.ActionResult{Message: success, Loan: loan}
	if action == "return" {
		res.Fine = loan.Fine
	}
	return c.JSON(http.StatusOK, res)
}

func (h *MemberHandler) Fines(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.FinesSummary{TotalFines: h.lib.TotalFines(username)})
}

func (h *MemberHandler) Eligibility(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.Eligibility{CanBorrow: h.lib.CanBorrow(username)})
}

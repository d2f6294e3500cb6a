// Package api is an in-memory implementation of the library backend used for
// local development and end-to-end tests of the client.
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/api/handler"
	"github.com/ntuclms/lms-client/internal/api/middleware"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/core/domain"
)

const (
	tokenTTL = 24 * time.Hour
	// Prefix is where the backend contract is mounted.
	Prefix = "/api"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(lib *store.Library, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(lib, jwtSecret, tokenTTL)
	bookHandler := handler.NewBookHandler(lib)
	memberHandler := handler.NewMemberHandler(lib)
	adminHandler := handler.NewAdminHandler(lib)
	authMiddleware := middleware.Auth(jwtSecret)

	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group(Prefix)

	// --- Auth routes ---
	g.POST("/auth/register", authHandler.Register)
	g.POST("/auth/login", authHandler.Login)
	g.POST("/auth/validate", authHandler.Validate)

	// --- Catalog (public) ---
	g.GET("/books", bookHandler.List)
	g.GET("/books/available", bookHandler.Available)
	g.GET("/books/search", bookHandler.Search)
	g.GET("/books/:id", bookHandler.Get)

	// --- Member self-service ---
	mg := g.Group("/member", authMiddleware, middleware.RBAC(string(domain.RoleUser), string(domain.RoleAdmin)))
	mg.GET("/dashboard", memberHandler.Dashboard)
	mg.GET("/profile", memberHandler.Profile)
	mg.PUT("/profile", memberHandler.UpdateProfile)
	mg.GET("/loans", memberHandler.CurrentLoans)
	mg.GET("/loans/history", memberHandler.LoanHistory)
	mg.POST("/borrow/:bookId", memberHandler.Borrow)
	mg.POST("/renew/:loanId", memberHandler.Renew)
	mg.POST("/return/:loanId", memberHandler.Return)
	mg.GET("/fines", memberHandler.Fines)
	mg.GET("/eligibility", memberHandler.Eligibility)

	// --- Administration ---
	ag := g.Group("/admin", authMiddleware, middleware.RBAC(string(domain.RoleAdmin)))
	ag.GET("/dashboard", adminHandler.Dashboard)
	ag.GET("/statistics", adminHandler.Statistics)

	ag.GET("/members", adminHandler.Members)
	ag.POST("/members", adminHandler.AddMember)
	ag.GET("/members/search", adminHandler.SearchMembers)
	ag.GET("/members/:id", adminHandler.Member)
	ag.PUT("/members/:id", adminHandler.UpdateMember)
	ag.DELETE("/members/:id", adminHandler.DeleteMember)
	ag.PUT("/members/:id/renew", adminHandler.RenewMembership)

	ag.GET("/books", adminHandler.Books)
	ag.POST("/books", adminHandler.AddBook)
	ag.GET("/books/search", adminHandler.SearchBooks)
	ag.PUT("/books/:id", adminHandler.UpdateBook)
	ag.DELETE("/books/:id", adminHandler.DeleteBook)

	ag.GET("/loans", adminHandler.Loans)
	ag.POST("/loans", adminHandler.CreateLoan)
	ag.GET("/loans/search", adminHandler.SearchLoans)
	ag.GET("/loans/overdue", adminHandler.OverdueLoans)
	ag.POST("/loans/update-overdue", adminHandler.UpdateOverdueLoans)
	ag.PUT("/loans/:id/extend", adminHandler.ExtendLoan)
	ag.DELETE("/loans/:id", adminHandler.DeleteLoan)

	return e
}

// Package handlers holds the HTTP handlers of the labdash service: the
// dashboard shell, the finance JSON datasets, the close report exports
// and the chrome pool stats.
package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"labops/internal/domain"
	"labops/internal/finance"
	"labops/internal/report"
)

// FinanceService is the slice of the finance service the JSON endpoints
// read from. It extends the close-report slice with the dashboard
// datasets.
type FinanceService interface {
	report.Finance
	BankBalances(ctx context.Context) ([]finance.BankBalance, error)
	MonthlyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]finance.MonthPoint, error)
	MonthlyCosts(ctx context.Context, year int, companyID int64, excludeIC bool) ([]finance.MonthPoint, error)
	WeeklyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]finance.WeekPoint, error)
	DailyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]finance.DayPoint, error)
	CostAccounts(ctx context.Context, year int, companyID int64, excludeIC bool) ([]finance.AccountTotal, error)
	OpenReceivables(ctx context.Context, companyID int64) ([]finance.PartnerBalance, error)
	OpenPayables(ctx context.Context, companyID int64) ([]finance.PartnerBalance, error)
	VATPosition(ctx context.Context, companyID int64, monthsBack int) ([]finance.VATMonth, error)
	SearchInvoices(ctx context.Context, f finance.InvoiceFilter) ([]finance.Invoice, error)
}

// FinanceHandlers serves the dashboard datasets as JSON.
type FinanceHandlers struct {
	svc FinanceService
}

func NewFinanceHandlers(svc FinanceService) *FinanceHandlers {
	return &FinanceHandlers{svc: svc}
}

func (h *FinanceHandlers) ready() error {
	if h.svc == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Odoo backend not configured")
	}
	return nil
}

// httpError translates a service error into the fiber error envelope.
func httpError(err error) error {
	return fiber.NewError(domain.HTTPStatus(err), err.Error())
}

func parseYear(c *fiber.Ctx) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid year")
	}
	return year, nil
}

func parseCompany(c *fiber.Ctx) (int64, error) {
	raw := c.Query("company")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid company: must be a numeric id")
	}
	return id, nil
}

// Intercompany subtraction is on unless the caller turns it off.
func parseExcludeIC(c *fiber.Ctx) bool {
	return c.QueryBool("exclude_ic", true)
}

func (h *FinanceHandlers) Companies(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	return c.JSON(h.svc.Companies())
}

func (h *FinanceHandlers) Banks(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	out, err := h.svc.BankBalances(c.Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) Intercompany(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	out, err := h.svc.IntercompanyPositions(c.Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

// yearParams reads the shared parameters of the year-scoped datasets.
func yearParams(c *fiber.Ctx) (int, int64, bool, error) {
	year, err := parseYear(c)
	if err != nil {
		return 0, 0, false, err
	}
	company, err := parseCompany(c)
	if err != nil {
		return 0, 0, false, err
	}
	return year, company, parseExcludeIC(c), nil
}

func (h *FinanceHandlers) MonthlyRevenue(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, company, excludeIC, err := yearParams(c)
	if err != nil {
		return err
	}
	out, err := h.svc.MonthlyRevenue(c.Context(), year, company, excludeIC)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) MonthlyCosts(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, company, excludeIC, err := yearParams(c)
	if err != nil {
		return err
	}
	out, err := h.svc.MonthlyCosts(c.Context(), year, company, excludeIC)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) WeeklyRevenue(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, company, excludeIC, err := yearParams(c)
	if err != nil {
		return err
	}
	out, err := h.svc.WeeklyRevenue(c.Context(), year, company, excludeIC)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) DailyRevenue(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, company, excludeIC, err := yearParams(c)
	if err != nil {
		return err
	}
	out, err := h.svc.DailyRevenue(c.Context(), year, company, excludeIC)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) CostAccounts(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, company, excludeIC, err := yearParams(c)
	if err != nil {
		return err
	}
	out, err := h.svc.CostAccounts(c.Context(), year, company, excludeIC)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) Receivables(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	company, err := parseCompany(c)
	if err != nil {
		return err
	}
	out, err := h.svc.OpenReceivables(c.Context(), company)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) Payables(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	company, err := parseCompany(c)
	if err != nil {
		return err
	}
	out, err := h.svc.OpenPayables(c.Context(), company)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) VAT(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	company, err := parseCompany(c)
	if err != nil {
		return err
	}
	months := 6
	if raw := c.Query("months"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 24 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid months: must be between 1 and 24")
		}
		months = m
	}
	out, err := h.svc.VATPosition(c.Context(), company, months)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

func (h *FinanceHandlers) Invoices(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}
	year, err := parseYear(c)
	if err != nil {
		return err
	}
	company, err := parseCompany(c)
	if err != nil {
		return err
	}

	kind := c.Query("kind")
	switch kind {
	case "", "verkoop", "inkoop":
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid kind: must be \"verkoop\" or \"inkoop\"")
	}
	state := c.Query("state")
	switch state {
	case "", "draft", "posted", "cancel":
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid state: must be \"draft\", \"posted\" or \"cancel\"")
	}

	out, err := h.svc.SearchInvoices(c.Context(), finance.InvoiceFilter{
		Year:      year,
		CompanyID: company,
		Kind:      kind,
		State:     state,
		Search:    c.Query("q"),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

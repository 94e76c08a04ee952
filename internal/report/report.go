// Package report assembles the maandafsluiting close report and renders
// it as CSV, JSON, XLSX or PDF.
package report

import (
	"context"
	"fmt"
	"time"

	"labops/internal/domain"
	"labops/internal/finance"
)

// Period is one accounting month.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads the "2006-01" form used in requests and filenames.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, domain.E(domain.KindValidation, "report", fmt.Sprintf("invalid period %q, want YYYY-MM", s), err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the first day of the period as an ISO date.
func (p Period) Start() string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// End returns the last day of the period as an ISO date.
func (p Period) End() string {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// Label is the Dutch display form, e.g. "Augustus 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", finance.MonthName(p.Month), p.Year)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Finance is the slice of the finance service the builder uses.
type Finance interface {
	Companies() []finance.Company
	PeriodRevenue(ctx context.Context, start, end string, companyID int64) (float64, error)
	PeriodCosts(ctx context.Context, start, end string, companyID int64) (float64, error)
	PeriodVAT(ctx context.Context, start, end string, companyID int64) (float64, error)
	PeriodCostLines(ctx context.Context, start, end string, companyID int64) ([]finance.CategoryTotal, error)
	IntercompanyPositions(ctx context.Context) ([]finance.RCPosition, error)
	BalanceCheck(ctx context.Context, asOf string, companyID int64) (finance.BalanceTotals, error)
}

type CompanyClose struct {
	Company    finance.Company         `json:"company"`
	Revenue    float64                 `json:"revenue"`
	Costs      float64                 `json:"costs"`
	Result     float64                 `json:"result"`
	VATPayable float64                 `json:"vat_payable"`
	CostLines  []finance.CategoryTotal `json:"cost_lines"`
}

type GroupTotals struct {
	Revenue    float64 `json:"revenue"`
	Costs      float64 `json:"costs"`
	Result     float64 `json:"result"`
	VATPayable float64 `json:"vat_payable"`
}

// IntercompanyCheck verifies that the rekening-courant positions cancel
// out across the group.
type IntercompanyCheck struct {
	Positions []finance.RCPosition `json:"positions"`
	Net       float64              `json:"net"`
	OK        bool                 `json:"ok"`
}

// BalanceCheck verifies that the ledger balances through the period end.
type BalanceCheck struct {
	finance.BalanceTotals
	OK bool `json:"ok"`
}

type CloseReport struct {
	Period       string            `json:"period"`
	PeriodLabel  string            `json:"period_label"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Companies    []CompanyClose    `json:"companies"`
	Totals       GroupTotals       `json:"totals"`
	Intercompany IntercompanyCheck `json:"intercompany"`
	Balance      BalanceCheck      `json:"balance"`
}

// Build loads the close figures for every group company plus the group
// level checks. Amounts come back positive for both revenue and costs;
// Result is revenue minus costs.
func Build(ctx context.Context, f Finance, p Period) (*CloseReport, error) {
	start, end := p.Start(), p.End()

	r := &CloseReport{
		Period:      p.String(),
		PeriodLabel: p.Label(),
		GeneratedAt: time.Now().UTC(),
	}

	for _, company := range f.Companies() {
		revenue, err := f.PeriodRevenue(ctx, start, end, company.ID)
		if err != nil {
			return nil, err
		}
		costs, err := f.PeriodCosts(ctx, start, end, company.ID)
		if err != nil {
			return nil, err
		}
		vat, err := f.PeriodVAT(ctx, start, end, company.ID)
		if err != nil {
			return nil, err
		}
		lines, err := f.PeriodCostLines(ctx, start, end, company.ID)
		if err != nil {
			return nil, err
		}

		r.Companies = append(r.Companies, CompanyClose{
			Company:    company,
			Revenue:    revenue,
			Costs:      costs,
			Result:     revenue - costs,
			VATPayable: vat,
			CostLines:  lines,
		})
		r.Totals.Revenue += revenue
		r.Totals.Costs += costs
		r.Totals.Result += revenue - costs
		r.Totals.VATPayable += vat
	}

	positions, err := f.IntercompanyPositions(ctx)
	if err != nil {
		return nil, err
	}
	var net float64
	for _, pos := range positions {
		net += pos.Balance
	}
	r.Intercompany = IntercompanyCheck{
		Positions: positions,
		Net:       net,
		OK:        net < 0.01 && net > -0.01,
	}

	totals, err := f.BalanceCheck(ctx, end, 0)
	if err != nil {
		return nil, err
	}
	r.Balance = BalanceCheck{BalanceTotals: totals, OK: totals.Balanced()}

	return r, nil
}

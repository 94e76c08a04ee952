package finance

import (
	"context"
	"sort"

	"labops/internal/odoo"
)

// Period loaders back the month-end close report. They take explicit
// date bounds (inclusive, ISO dates) instead of a year.

type CategoryTotal struct {
	Prefix   string  `json:"prefix"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BalanceTotals holds the ledger-wide debit and credit sums used by the
// closing balance check.
type BalanceTotals struct {
	Debit  float64 `json:"debit"`
	Credit float64 `json:"credit"`
}

// Balanced reports whether debits and credits agree to the cent.
func (b BalanceTotals) Balanced() bool {
	diff := b.Debit - b.Credit
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}

func (s *Service) periodDomain(start, end string, companyID int64) []any {
	d := []any{
		odoo.Cond("date", ">=", start),
		odoo.Cond("date", "<=", end),
		odoo.Cond("parent_state", "=", "posted"),
	}
	if companyID > 0 {
		d = append(d, odoo.Cond("company_id", "=", companyID))
	}
	return d
}

func (s *Service) sumBalance(ctx context.Context, dom []any) (float64, error) {
	raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
		Model:  "account.move.line",
		Domain: dom,
		Fields: []string{"balance:sum"},
	})
	if err != nil {
		return 0, err
	}
	rows, err := decode[aggRow](raw)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range rows {
		total += r.Balance.Float()
	}
	return total, nil
}

// PeriodRevenue returns total revenue booked between start and end,
// negated into a positive amount.
func (s *Service) PeriodRevenue(ctx context.Context, start, end string, companyID int64) (float64, error) {
	key := cacheKey("close.revenue", start, end, companyID)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) (float64, error) {
		dom := append(s.periodDomain(start, end, companyID),
			odoo.Cond("account_id.code", ">=", revenueLow),
			odoo.Cond("account_id.code", "<", revenueHigh),
		)
		total, err := s.sumBalance(ctx, dom)
		if err != nil {
			return 0, err
		}
		return -total, nil
	})
}

// PeriodCosts returns total costs booked between start and end across
// the 4*, 6* and 7* ranges.
func (s *Service) PeriodCosts(ctx context.Context, start, end string, companyID int64) (float64, error) {
	key := cacheKey("close.costs", start, end, companyID)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) (float64, error) {
		var total float64
		for _, r := range costRanges {
			dom := append(s.periodDomain(start, end, companyID),
				odoo.Cond("account_id.code", ">=", r[0]),
				odoo.Cond("account_id.code", "<", r[1]),
			)
			sum, err := s.sumBalance(ctx, dom)
			if err != nil {
				return 0, err
			}
			total += sum
		}
		return total, nil
	})
}

// PeriodCostLines returns the period costs rolled up per two-digit
// account prefix, ordered by prefix.
func (s *Service) PeriodCostLines(ctx context.Context, start, end string, companyID int64) ([]CategoryTotal, error) {
	key := cacheKey("close.costlines", start, end, companyID)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) ([]CategoryTotal, error) {
		byPrefix := make(map[string]float64)
		for _, r := range costRanges {
			dom := append(s.periodDomain(start, end, companyID),
				odoo.Cond("account_id.code", ">=", r[0]),
				odoo.Cond("account_id.code", "<", r[1]),
			)
			raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
				Model:   "account.move.line",
				Domain:  dom,
				Fields:  []string{"balance:sum"},
				GroupBy: []string{"account_id"},
			})
			if err != nil {
				return nil, err
			}
			rows, err := decode[aggRow](raw)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				code := AccountCode(row.Account.Name)
				if len(code) < 2 {
					continue
				}
				byPrefix[code[:2]] += row.Balance.Float()
			}
		}

		out := make([]CategoryTotal, 0, len(byPrefix))
		for prefix, amount := range byPrefix {
			out = append(out, CategoryTotal{
				Prefix:   prefix,
				Category: CategoryName(prefix),
				Amount:   amount,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
		return out, nil
	})
}

// PeriodVAT returns the net VAT due for the period: credit minus debit
// over the tax accounts. The account match is deliberately wide, some
// administrations name their VAT accounts instead of numbering them
// under 15*.
func (s *Service) PeriodVAT(ctx context.Context, start, end string, companyID int64) (float64, error) {
	key := cacheKey("close.vat", start, end, companyID)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) (float64, error) {
		dom := append(s.periodDomain(start, end, companyID),
			odoo.OpOr, odoo.OpOr, odoo.OpOr,
			odoo.Cond("account_id.code", "like", vatCodeLike),
			odoo.Cond("account_id.name", "ilike", "BTW"),
			odoo.Cond("account_id.name", "ilike", "VAT"),
			odoo.Cond("account_id.name", "ilike", "belasting"),
		)
		raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
			Model:  "account.move.line",
			Domain: dom,
			Fields: []string{"debit:sum", "credit:sum"},
		})
		if err != nil {
			return 0, err
		}
		rows, err := decode[aggRow](raw)
		if err != nil {
			return 0, err
		}
		var debit, credit float64
		for _, r := range rows {
			debit += r.Debit.Float()
			credit += r.Credit.Float()
		}
		return credit - debit, nil
	})
}

// BalanceCheck sums all posted debits and credits up to asOf.
func (s *Service) BalanceCheck(ctx context.Context, asOf string, companyID int64) (BalanceTotals, error) {
	key := cacheKey("close.balance", asOf, companyID)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) (BalanceTotals, error) {
		dom := []any{
			odoo.Cond("date", "<=", asOf),
			odoo.Cond("parent_state", "=", "posted"),
		}
		if companyID > 0 {
			dom = append(dom, odoo.Cond("company_id", "=", companyID))
		}
		raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
			Model:  "account.move.line",
			Domain: dom,
			Fields: []string{"debit:sum", "credit:sum"},
		})
		if err != nil {
			return BalanceTotals{}, err
		}
		rows, err := decode[aggRow](raw)
		if err != nil {
			return BalanceTotals{}, err
		}
		var t BalanceTotals
		for _, r := range rows {
			t.Debit += r.Debit.Float()
			t.Credit += r.Credit.Float()
		}
		return t, nil
	})
}

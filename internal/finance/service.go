package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/odoo"
)

// rpc is the slice of the Odoo client the service needs. Tests swap in a
// fake.
type rpc interface {
	SearchRead(ctx context.Context, q odoo.Query) (json.RawMessage, error)
	ReadGroup(ctx context.Context, q odoo.GroupQuery) (json.RawMessage, error)
}

// Service loads the dashboard datasets. All loaders are read-through
// cached; pass a nil cache to disable caching.
type Service struct {
	rpc        rpc
	cache      *Cache
	companies  map[int64]string
	icPartners []int64
}

func New(client rpc, cache *Cache, cfg config.Odoo) *Service {
	return &Service{
		rpc:        client,
		cache:      cache,
		companies:  cfg.Companies,
		icPartners: cfg.IntercompanyPartners,
	}
}

type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Partner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Companies returns the configured group companies ordered by ID.
func (s *Service) Companies() []Company {
	out := make([]Company, 0, len(s.companies))
	for id, name := range s.companies {
		out = append(out, Company{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IntercompanyPartners returns the partner IDs of the group companies
// themselves.
func (s *Service) IntercompanyPartners() []int64 {
	return append([]int64(nil), s.icPartners...)
}

type BankBalance struct {
	Journal     string  `json:"journal"`
	JournalCode string  `json:"journal_code"`
	AccountCode string  `json:"account_code"`
	Company     Company `json:"company"`
	Balance     float64 `json:"balance"`
}

type RCPosition struct {
	Journal     string  `json:"journal"`
	AccountCode string  `json:"account_code"`
	Company     Company `json:"company"`
	Balance     float64 `json:"balance"`
	Side        string  `json:"side"`
}

type MonthPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type WeekPoint struct {
	Week   string  `json:"week"`
	Number int     `json:"week_num"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type DayPoint struct {
	Date   string  `json:"date"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type AccountTotal struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

type PartnerBalance struct {
	Partner Partner `json:"partner"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

type VATMonth struct {
	Month  string  `json:"month"`
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	Net    float64 `json:"net"`
}

// Odoo wire rows.

type journalRow struct {
	Name             odoo.Text     `json:"name"`
	Code             odoo.Text     `json:"code"`
	CompanyID        odoo.Relation `json:"company_id"`
	DefaultAccountID odoo.Relation `json:"default_account_id"`
	Balance          odoo.Amount   `json:"current_statement_balance"`
}

type accountRow struct {
	ID   int64     `json:"id"`
	Code odoo.Text `json:"code"`
	Name odoo.Text `json:"name"`
}

type aggRow struct {
	Month   odoo.Text     `json:"date:month"`
	Week    odoo.Text     `json:"date:week"`
	Day     odoo.Text     `json:"date:day"`
	Balance odoo.Amount   `json:"balance"`
	Debit   odoo.Amount   `json:"debit"`
	Credit  odoo.Amount   `json:"credit"`
	Account odoo.Relation `json:"account_id"`
}

type moveLineRow struct {
	Date     odoo.Text     `json:"date"`
	Account  odoo.Relation `json:"account_id"`
	Company  odoo.Relation `json:"company_id"`
	Balance  odoo.Amount   `json:"balance"`
	Name     odoo.Text     `json:"name"`
	Partner  odoo.Relation `json:"partner_id"`
	Residual odoo.Amount   `json:"amount_residual"`
}

func decode[T any](raw json.RawMessage) ([]T, error) {
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, domain.E(domain.KindInternal, "finance.decode", "decode odoo rows", err)
	}
	return rows, nil
}

// BankBalances returns the balance per real bank account, rekening-
// courant journals filtered out.
func (s *Service) BankBalances(ctx context.Context) ([]BankBalance, error) {
	return cached(ctx, s.cache, ttlFast, cacheKey("banks"), func(ctx context.Context) ([]BankBalance, error) {
		journals, accounts, err := s.bankJournals(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]BankBalance, 0, len(journals))
		for _, j := range journals {
			code := string(accounts[j.DefaultAccountID.ID].Code)
			if IsRC(string(j.Name), code) {
				continue
			}
			out = append(out, BankBalance{
				Journal:     TranslateAccountName(string(j.Name)),
				JournalCode: string(j.Code),
				AccountCode: code,
				Company:     Company{ID: j.CompanyID.ID, Name: j.CompanyID.Name},
				Balance:     j.Balance.Float(),
			})
		}
		return out, nil
	})
}

// IntercompanyPositions returns the rekening-courant positions with
// group companies.
func (s *Service) IntercompanyPositions(ctx context.Context) ([]RCPosition, error) {
	return cached(ctx, s.cache, ttlFast, cacheKey("rc"), func(ctx context.Context) ([]RCPosition, error) {
		journals, accounts, err := s.bankJournals(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]RCPosition, 0, 4)
		for _, j := range journals {
			code := string(accounts[j.DefaultAccountID.ID].Code)
			if !IsRC(string(j.Name), code) {
				continue
			}
			out = append(out, RCPosition{
				Journal:     TranslateAccountName(string(j.Name)),
				AccountCode: code,
				Company:     Company{ID: j.CompanyID.ID, Name: j.CompanyID.Name},
				Balance:     j.Balance.Float(),
				Side:        RCSide(code),
			})
		}
		return out, nil
	})
}

func (s *Service) bankJournals(ctx context.Context) ([]journalRow, map[int64]accountRow, error) {
	raw, err := s.rpc.SearchRead(ctx, odoo.Query{
		Model:  "account.journal",
		Domain: []any{odoo.Cond("type", "=", "bank")},
		Fields: []string{"name", "company_id", "default_account_id", "current_statement_balance", "code"},
	})
	if err != nil {
		return nil, nil, err
	}
	journals, err := decode[journalRow](raw)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(journals))
	for _, j := range journals {
		if j.DefaultAccountID.ID != 0 {
			ids = append(ids, j.DefaultAccountID.ID)
		}
	}
	accounts := make(map[int64]accountRow, len(ids))
	if len(ids) > 0 {
		raw, err := s.rpc.SearchRead(ctx, odoo.Query{
			Model:  "account.account",
			Domain: []any{odoo.Cond("id", "in", ids)},
			Fields: []string{"id", "code", "name"},
		})
		if err != nil {
			return nil, nil, err
		}
		rows, err := decode[accountRow](raw)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range rows {
			accounts[a.ID] = a
		}
	}
	return journals, accounts, nil
}

func yearRange(year int) (string, string) {
	return fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-12-31", year)
}

func (s *Service) revenueDomain(year int, companyID int64) []any {
	start, end := yearRange(year)
	d := []any{
		odoo.Cond("account_id.code", ">=", revenueLow),
		odoo.Cond("account_id.code", "<", revenueHigh),
		odoo.Cond("date", ">=", start),
		odoo.Cond("date", "<=", end),
		odoo.Cond("parent_state", "=", "posted"),
	}
	if companyID > 0 {
		d = append(d, odoo.Cond("company_id", "=", companyID))
	}
	return d
}

func (s *Service) costDomains(year int, companyID int64) [][]any {
	start, end := yearRange(year)
	out := make([][]any, 0, len(costRanges))
	for _, r := range costRanges {
		d := []any{
			odoo.Cond("account_id.code", ">=", r[0]),
			odoo.Cond("account_id.code", "<", r[1]),
			odoo.Cond("date", ">=", start),
			odoo.Cond("date", "<=", end),
			odoo.Cond("parent_state", "=", "posted"),
		}
		if companyID > 0 {
			d = append(d, odoo.Cond("company_id", "=", companyID))
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) groupMonthly(ctx context.Context, dom []any) ([]aggRow, error) {
	raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
		Model:   "account.move.line",
		Domain:  dom,
		Fields:  []string{"balance:sum"},
		GroupBy: []string{"date:month"},
	})
	if err != nil {
		return nil, err
	}
	return decode[aggRow](raw)
}

// monthSeries accumulates amounts per month label, keeping first-seen
// label order.
type monthSeries struct {
	order  []string
	amount map[string]float64
}

func newMonthSeries() *monthSeries {
	return &monthSeries{amount: make(map[string]float64)}
}

func (m *monthSeries) add(label string, v float64) {
	if _, ok := m.amount[label]; !ok {
		m.order = append(m.order, label)
	}
	m.amount[label] += v
}

// sub subtracts only from months already present, the way the dashboard
// nets intercompany flows out of existing totals.
func (m *monthSeries) sub(label string, v float64) {
	if _, ok := m.amount[label]; ok {
		m.amount[label] -= v
	}
}

func (m *monthSeries) points() []MonthPoint {
	out := make([]MonthPoint, 0, len(m.order))
	for _, label := range m.order {
		out = append(out, MonthPoint{Month: label, Amount: m.amount[label]})
	}
	return out
}

// MonthlyRevenue returns revenue per month for one year, negated into
// positive amounts. With excludeIC the revenue booked on group partners
// is netted out.
func (s *Service) MonthlyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]MonthPoint, error) {
	key := cacheKey("revenue.monthly", year, companyID, excludeIC)
	return cached(ctx, s.cache, ttlStatic, key, func(ctx context.Context) ([]MonthPoint, error) {
		rows, err := s.groupMonthly(ctx, s.revenueDomain(year, companyID))
		if err != nil {
			return nil, err
		}
		series := newMonthSeries()
		for _, r := range rows {
			series.add(string(r.Month), -r.Balance.Float())
		}

		if excludeIC && len(s.icPartners) > 0 {
			icDom := append(s.revenueDomain(year, companyID), odoo.Cond("partner_id", "in", s.icPartners))
			icRows, err := s.groupMonthly(ctx, icDom)
			if err != nil {
				return nil, err
			}
			for _, r := range icRows {
				series.sub(string(r.Month), -r.Balance.Float())
			}
		}
		return series.points(), nil
	})
}

// MonthlyCosts returns the 4*, 6* and 7* cost totals per month for one
// year.
func (s *Service) MonthlyCosts(ctx context.Context, year int, companyID int64, excludeIC bool) ([]MonthPoint, error) {
	key := cacheKey("costs.monthly", year, companyID, excludeIC)
	return cached(ctx, s.cache, ttlStatic, key, func(ctx context.Context) ([]MonthPoint, error) {
		series := newMonthSeries()
		for _, dom := range s.costDomains(year, companyID) {
			rows, err := s.groupMonthly(ctx, dom)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				series.add(string(r.Month), r.Balance.Float())
			}
		}

		if excludeIC && len(s.icPartners) > 0 {
			for _, dom := range s.costDomains(year, companyID) {
				icDom := append(dom, odoo.Cond("partner_id", "in", s.icPartners))
				rows, err := s.groupMonthly(ctx, icDom)
				if err != nil {
					return nil, err
				}
				for _, r := range rows {
					series.sub(string(r.Month), r.Balance.Float())
				}
			}
		}
		return series.points(), nil
	})
}

// WeeklyRevenue returns revenue per ISO week, with the Monday of each
// week as its date.
func (s *Service) WeeklyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]WeekPoint, error) {
	key := cacheKey("revenue.weekly", year, companyID, excludeIC)
	return cached(ctx, s.cache, ttlStatic, key, func(ctx context.Context) ([]WeekPoint, error) {
		dom := s.revenueDomain(year, companyID)
		if excludeIC && len(s.icPartners) > 0 {
			dom = append(dom, odoo.Cond("partner_id", "not in", s.icPartners))
		}
		raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
			Model:   "account.move.line",
			Domain:  dom,
			Fields:  []string{"balance:sum"},
			GroupBy: []string{"date:week"},
		})
		if err != nil {
			return nil, err
		}
		rows, err := decode[aggRow](raw)
		if err != nil {
			return nil, err
		}

		out := make([]WeekPoint, 0, len(rows))
		for _, r := range rows {
			amount := -r.Balance.Float()
			if amount == 0 {
				continue
			}
			week, weekYear, ok := parseWeekLabel(string(r.Week))
			if !ok {
				continue
			}
			out = append(out, WeekPoint{
				Week:   string(r.Week),
				Number: week,
				Date:   isoWeekStart(weekYear, week).Format("2006-01-02"),
				Amount: amount,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out, nil
	})
}

// DailyRevenue returns revenue per day in ISO date order.
func (s *Service) DailyRevenue(ctx context.Context, year int, companyID int64, excludeIC bool) ([]DayPoint, error) {
	key := cacheKey("revenue.daily", year, companyID, excludeIC)
	return cached(ctx, s.cache, ttlStatic, key, func(ctx context.Context) ([]DayPoint, error) {
		dom := s.revenueDomain(year, companyID)
		if excludeIC && len(s.icPartners) > 0 {
			dom = append(dom, odoo.Cond("partner_id", "not in", s.icPartners))
		}
		raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
			Model:   "account.move.line",
			Domain:  dom,
			Fields:  []string{"balance:sum"},
			GroupBy: []string{"date:day"},
		})
		if err != nil {
			return nil, err
		}
		rows, err := decode[aggRow](raw)
		if err != nil {
			return nil, err
		}

		out := make([]DayPoint, 0, len(rows))
		for _, r := range rows {
			amount := -r.Balance.Float()
			if amount == 0 {
				continue
			}
			iso, ok := parseDayLabel(string(r.Day))
			if !ok {
				continue
			}
			out = append(out, DayPoint{Date: iso, Label: string(r.Day), Amount: amount})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out, nil
	})
}

// CostAccounts returns yearly cost totals per translated account name,
// largest first.
func (s *Service) CostAccounts(ctx context.Context, year int, companyID int64, excludeIC bool) ([]AccountTotal, error) {
	key := cacheKey("costs.accounts", year, companyID, excludeIC)
	return cached(ctx, s.cache, ttlFast, key, func(ctx context.Context) ([]AccountTotal, error) {
		start, end := yearRange(year)
		dom := []any{
			odoo.OpOr, odoo.OpOr,
			odoo.OpAnd, odoo.Cond("account_id.code", ">=", costRanges[0][0]), odoo.Cond("account_id.code", "<", costRanges[0][1]),
			odoo.OpAnd, odoo.Cond("account_id.code", ">=", costRanges[1][0]), odoo.Cond("account_id.code", "<", costRanges[1][1]),
			odoo.OpAnd, odoo.Cond("account_id.code", ">=", costRanges[2][0]), odoo.Cond("account_id.code", "<", costRanges[2][1]),
			odoo.Cond("date", ">=", start),
			odoo.Cond("date", "<=", end),
			odoo.Cond("parent_state", "=", "posted"),
		}
		if companyID > 0 {
			dom = append(dom, odoo.Cond("company_id", "=", companyID))
		}

		raw, err := s.rpc.SearchRead(ctx, odoo.Query{
			Model:           "account.move.line",
			Domain:          dom,
			Fields:          []string{"date", "account_id", "company_id", "balance", "name", "partner_id"},
			Limit:           100000,
			IncludeArchived: true,
		})
		if err != nil {
			return nil, err
		}
		rows, err := decode[moveLineRow](raw)
		if err != nil {
			return nil, err
		}

		totals := make(map[string]float64)
		for _, r := range rows {
			if r.Account.Zero() {
				continue
			}
			if excludeIC && s.isIntercompanyPartner(r.Partner.ID) {
				continue
			}
			totals[TranslateAccountName(r.Account.Name)] += r.Balance.Float()
		}

		out := make([]AccountTotal, 0, len(totals))
		for account, amount := range totals {
			out = append(out, AccountTotal{Account: account, Amount: amount})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Amount != out[j].Amount {
				return out[i].Amount > out[j].Amount
			}
			return out[i].Account < out[j].Account
		})
		return out, nil
	})
}

func (s *Service) isIntercompanyPartner(id int64) bool {
	for _, p := range s.icPartners {
		if p == id {
			return true
		}
	}
	return false
}

// OpenReceivables returns unpaid customer balances grouped by partner,
// largest first.
func (s *Service) OpenReceivables(ctx context.Context, companyID int64) ([]PartnerBalance, error) {
	key := cacheKey("receivables", companyID)
	return cached(ctx, s.cache, ttlFast, key, func(ctx context.Context) ([]PartnerBalance, error) {
		return s.openItems(ctx, companyID, "asset_receivable", false)
	})
}

// OpenPayables returns unpaid supplier balances grouped by partner,
// largest first. Amounts are reported positive.
func (s *Service) OpenPayables(ctx context.Context, companyID int64) ([]PartnerBalance, error) {
	key := cacheKey("payables", companyID)
	return cached(ctx, s.cache, ttlFast, key, func(ctx context.Context) ([]PartnerBalance, error) {
		return s.openItems(ctx, companyID, "liability_payable", true)
	})
}

func (s *Service) openItems(ctx context.Context, companyID int64, accountType string, absolute bool) ([]PartnerBalance, error) {
	dom := []any{
		odoo.Cond("account_id.account_type", "=", accountType),
		odoo.Cond("parent_state", "=", "posted"),
		odoo.Cond("amount_residual", "!=", 0),
	}
	if companyID > 0 {
		dom = append(dom, odoo.Cond("company_id", "=", companyID))
	}

	raw, err := s.rpc.SearchRead(ctx, odoo.Query{
		Model:           "account.move.line",
		Domain:          dom,
		Fields:          []string{"company_id", "amount_residual", "partner_id"},
		Limit:           5000,
		IncludeArchived: true,
	})
	if err != nil {
		return nil, err
	}
	rows, err := decode[moveLineRow](raw)
	if err != nil {
		return nil, err
	}

	byPartner := make(map[int64]*PartnerBalance)
	var order []int64
	for _, r := range rows {
		if r.Partner.Zero() {
			continue
		}
		pb, ok := byPartner[r.Partner.ID]
		if !ok {
			pb = &PartnerBalance{Partner: Partner{ID: r.Partner.ID, Name: r.Partner.Name}}
			byPartner[r.Partner.ID] = pb
			order = append(order, r.Partner.ID)
		}
		amount := r.Residual.Float()
		if absolute && amount < 0 {
			amount = -amount
		}
		pb.Total += amount
		pb.Count++
	}

	out := make([]PartnerBalance, 0, len(order))
	for _, id := range order {
		out = append(out, *byPartner[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// VATPosition returns the monthly VAT position over the trailing window:
// input tax (voorbelasting, debit on 15* accounts), output tax (af te
// dragen, credit) and the net amount due.
func (s *Service) VATPosition(ctx context.Context, companyID int64, monthsBack int) ([]VATMonth, error) {
	if monthsBack <= 0 {
		monthsBack = 6
	}
	key := cacheKey("vat.monthly", companyID, monthsBack)
	return cached(ctx, s.cache, ttlSlow, key, func(ctx context.Context) ([]VATMonth, error) {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := first.AddDate(0, -monthsBack, 0).Format("2006-01-02")
		end := now.Format("2006-01-02")

		dom := []any{
			odoo.Cond("date", ">=", start),
			odoo.Cond("date", "<=", end),
			odoo.Cond("parent_state", "=", "posted"),
			odoo.Cond("account_id.code", "like", vatCodeLike),
		}
		if companyID > 0 {
			dom = append(dom, odoo.Cond("company_id", "=", companyID))
		}

		raw, err := s.rpc.ReadGroup(ctx, odoo.GroupQuery{
			Model:   "account.move.line",
			Domain:  dom,
			Fields:  []string{"debit:sum", "credit:sum"},
			GroupBy: []string{"date:month"},
		})
		if err != nil {
			return nil, err
		}
		rows, err := decode[aggRow](raw)
		if err != nil {
			return nil, err
		}

		out := make([]VATMonth, 0, len(rows))
		for _, r := range rows {
			debit := r.Debit.Float()
			credit := r.Credit.Float()
			out = append(out, VATMonth{
				Month:  string(r.Month),
				Input:  debit,
				Output: credit,
				Net:    credit - debit,
			})
		}
		return out, nil
	})
}

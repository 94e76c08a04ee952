package finance

import (
	"context"
	"fmt"

	"labops/internal/odoo"
)

type Invoice struct {
	Name     string  `json:"name"`
	Partner  Partner `json:"partner"`
	Date     string  `json:"invoice_date"`
	Total    float64 `json:"amount_total"`
	Residual float64 `json:"amount_residual"`
	State    string  `json:"state"`
	MoveType string  `json:"move_type"`
	Company  Company `json:"company"`
	Ref      string  `json:"ref"`
}

// InvoiceFilter narrows SearchInvoices. Kind is "verkoop", "inkoop" or
// empty for both sides.
type InvoiceFilter struct {
	Year      int
	CompanyID int64
	Kind      string
	State     string
	Search    string
}

type invoiceRow struct {
	Name     odoo.Text     `json:"name"`
	Partner  odoo.Relation `json:"partner_id"`
	Date     odoo.Text     `json:"invoice_date"`
	Total    odoo.Amount   `json:"amount_total"`
	Residual odoo.Amount   `json:"amount_residual"`
	State    odoo.Text     `json:"state"`
	MoveType odoo.Text     `json:"move_type"`
	Company  odoo.Relation `json:"company_id"`
	Ref      odoo.Text     `json:"ref"`
}

func invoiceMoveTypes(kind string) []string {
	switch kind {
	case "verkoop":
		return []string{"out_invoice", "out_refund"}
	case "inkoop":
		return []string{"in_invoice", "in_refund"}
	default:
		return []string{"out_invoice", "out_refund", "in_invoice", "in_refund"}
	}
}

// SearchInvoices returns up to 500 invoices matching the filter, the
// free-text search spanning invoice number, partner name and reference.
func (s *Service) SearchInvoices(ctx context.Context, f InvoiceFilter) ([]Invoice, error) {
	key := cacheKey("invoices", f.Year, f.CompanyID, f.Kind, f.State, f.Search)
	return cached(ctx, s.cache, ttlFast, key, func(ctx context.Context) ([]Invoice, error) {
		dom := []any{
			odoo.Cond("invoice_date", ">=", fmt.Sprintf("%d-01-01", f.Year)),
			odoo.Cond("invoice_date", "<=", fmt.Sprintf("%d-12-31", f.Year)),
			odoo.Cond("move_type", "in", invoiceMoveTypes(f.Kind)),
		}
		if f.CompanyID > 0 {
			dom = append(dom, odoo.Cond("company_id", "=", f.CompanyID))
		}
		if f.State != "" {
			dom = append(dom, odoo.Cond("state", "=", f.State))
		}
		if f.Search != "" {
			dom = append([]any{odoo.OpAnd}, dom...)
			dom = append(dom,
				odoo.OpOr, odoo.OpOr,
				odoo.Cond("name", "ilike", f.Search),
				odoo.Cond("partner_id.name", "ilike", f.Search),
				odoo.Cond("ref", "ilike", f.Search),
			)
		}

		raw, err := s.rpc.SearchRead(ctx, odoo.Query{
			Model:  "account.move",
			Domain: dom,
			Fields: []string{
				"name", "partner_id", "invoice_date", "amount_total",
				"amount_residual", "state", "move_type", "company_id", "ref",
			},
			Limit:           500,
			IncludeArchived: true,
		})
		if err != nil {
			return nil, err
		}
		rows, err := decode[invoiceRow](raw)
		if err != nil {
			return nil, err
		}

		out := make([]Invoice, 0, len(rows))
		for _, r := range rows {
			out = append(out, Invoice{
				Name:     string(r.Name),
				Partner:  Partner{ID: r.Partner.ID, Name: r.Partner.Name},
				Date:     string(r.Date),
				Total:    r.Total.Float(),
				Residual: r.Residual.Float(),
				State:    string(r.State),
				MoveType: string(r.MoveType),
				Company:  Company{ID: r.Company.ID, Name: r.Company.Name},
				Ref:      string(r.Ref),
			})
		}
		return out, nil
	})
}

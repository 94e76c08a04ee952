package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV renders the report as a flat CSV with one section per block.
// Amounts use a dot decimal separator so spreadsheets and scripts parse
// them without locale tricks.
func (r *CloseReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"maandafsluiting", r.Period, r.PeriodLabel},
		{"gegenereerd", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"vennootschap", "omzet", "kosten", "resultaat", "btw"},
	}
	for _, c := range r.Companies {
		rows = append(rows, []string{
			c.Company.Name,
			amount(c.Revenue), amount(c.Costs), amount(c.Result), amount(c.VATPayable),
		})
	}
	rows = append(rows, []string{
		"totaal",
		amount(r.Totals.Revenue), amount(r.Totals.Costs),
		amount(r.Totals.Result), amount(r.Totals.VATPayable),
	})

	rows = append(rows, []string{}, []string{"vennootschap", "categorie", "bedrag"})
	for _, c := range r.Companies {
		for _, line := range c.CostLines {
			rows = append(rows, []string{
				c.Company.Name,
				line.Prefix + " " + line.Category,
				amount(line.Amount),
			})
		}
	}

	rows = append(rows, []string{},
		[]string{"controle", "waarde", "status"},
		[]string{"rekening-courant netto", amount(r.Intercompany.Net), checkStatus(r.Intercompany.OK)},
		[]string{"proefbalans debet", amount(r.Balance.Debit), checkStatus(r.Balance.OK)},
		[]string{"proefbalans credit", amount(r.Balance.Credit), checkStatus(r.Balance.OK)},
	)

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func checkStatus(ok bool) string {
	if ok {
		return "OK"
	}
	return "AFWIJKING"
}

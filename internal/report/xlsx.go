package report

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Maandafsluiting"

// WriteXLSX renders the report as a single-sheet workbook, streamed so
// the handler never holds more than the workbook skeleton in memory.
func (r *CloseReport) WriteXLSX(w io.Writer) error {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	file.SetSheetName(file.GetSheetName(0), xlsxSheetName)

	stream, err := file.NewStreamWriter(xlsxSheetName)
	if err != nil {
		return err
	}

	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amountFmt := "#,##0.00"
	amountID, err := file.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return err
	}

	rowIndex := 1
	writeRow := func(cells []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return err
		}
		if err := stream.SetRow(cell, cells); err != nil {
			return err
		}
		rowIndex++
		return nil
	}
	headerRow := func(labels ...string) error {
		cells := make([]any, len(labels))
		for i, l := range labels {
			cells[i] = excelize.Cell{StyleID: headerID, Value: l}
		}
		return writeRow(cells)
	}
	num := func(v float64) excelize.Cell {
		return excelize.Cell{StyleID: amountID, Value: v}
	}
	blank := func() { rowIndex++ }

	if err := headerRow("Maandafsluiting " + r.PeriodLabel); err != nil {
		return err
	}
	if err := writeRow([]any{"Gegenereerd op " + r.GeneratedAt.Format("02-01-2006 15:04")}); err != nil {
		return err
	}
	blank()

	if err := headerRow("Vennootschap", "Omzet", "Kosten", "Resultaat", "Af te dragen BTW"); err != nil {
		return err
	}
	for _, c := range r.Companies {
		err := writeRow([]any{c.Company.Name, num(c.Revenue), num(c.Costs), num(c.Result), num(c.VATPayable)})
		if err != nil {
			return err
		}
	}
	err = writeRow([]any{
		excelize.Cell{StyleID: headerID, Value: "Totaal"},
		num(r.Totals.Revenue), num(r.Totals.Costs), num(r.Totals.Result), num(r.Totals.VATPayable),
	})
	if err != nil {
		return err
	}
	blank()

	if err := headerRow("Vennootschap", "Categorie", "Bedrag"); err != nil {
		return err
	}
	for _, c := range r.Companies {
		for _, line := range c.CostLines {
			err := writeRow([]any{c.Company.Name, line.Prefix + " " + line.Category, num(line.Amount)})
			if err != nil {
				return err
			}
		}
	}
	blank()

	if err := headerRow("Controle", "Waarde", "Status"); err != nil {
		return err
	}
	checks := [][]any{
		{"Rekening-courant netto", num(r.Intercompany.Net), checkStatus(r.Intercompany.OK)},
		{"Proefbalans debet", num(r.Balance.Debit), checkStatus(r.Balance.OK)},
		{"Proefbalans credit", num(r.Balance.Credit), checkStatus(r.Balance.OK)},
	}
	for _, row := range checks {
		if err := writeRow(row); err != nil {
			return err
		}
	}

	if err := stream.Flush(); err != nil {
		return err
	}
	_, err = file.WriteTo(w)
	return err
}

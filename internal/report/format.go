package report

import (
	"fmt"

	"labops/internal/domain"
)

// Format selects the close report output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat reads a format query value. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatJSON, nil
	case FormatCSV, FormatJSON, FormatXLSX, FormatPDF:
		return Format(s), nil
	default:
		return "", domain.E(domain.KindValidation, "report",
			fmt.Sprintf("unknown format %q, want csv, json, xlsx or pdf", s), nil)
	}
}

// ContentType returns the response media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}

// Filename is the download name for a rendered report.
func Filename(p Period, f Format) string {
	return fmt.Sprintf("maandafsluiting-%s.%s", p, f)
}

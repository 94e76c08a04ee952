package report

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"labops/internal/domain"
)

//go:embed templates/close.html
var closeTemplateSrc string

var closeTemplate = pongo2.Must(pongo2.FromString(closeTemplateSrc))

func init() {
	if err := pongo2.RegisterFilter("euro", filterEuro); err != nil {
		panic(err)
	}
}

func filterEuro(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(formatEuro(in.Float())), nil
}

// formatEuro renders an amount in Dutch notation: "€ 1.234,56".
func formatEuro(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(intPart[i])
	}
	return "€ " + sign + b.String() + "," + frac
}

// RenderHTML fills the close template. The result is a standalone
// document; the print sheet gets injected at PDF time.
func RenderHTML(r *CloseReport) (string, error) {
	out, err := closeTemplate.Execute(pongo2.Context{
		"period":       r.Period,
		"period_label": r.PeriodLabel,
		"generated_at": r.GeneratedAt.Format("02-01-2006 15:04"),
		"companies":    r.Companies,
		"totals":       r.Totals,
		"intercompany": r.Intercompany,
		"balance":      r.Balance,
	})
	if err != nil {
		return "", domain.E(domain.KindInternal, "report", "render close template", err)
	}
	return out, nil
}

package report

import (
	"context"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/export"
	"labops/internal/infra/chrome"
)

// ReportFooterTitle prefixes the running footer of the PDF form; the
// period label is appended per report.
const ReportFooterTitle = "FID Finance - Maandafsluiting"

type renderFunc func(ctx context.Context, pdfCfg config.PDF, html string, opts chrome.PrintOptions) ([]byte, error)

// PDFDocument returns the styled HTML and print options for a close
// report, ready to hand to chrome. Split out so the HTTP layer can heat
// a pooled tab instead of launching a browser per request.
func PDFDocument(r *CloseReport, cfg config.PDF) (string, chrome.PrintOptions, error) {
	html, err := RenderHTML(r)
	if err != nil {
		return "", chrome.PrintOptions{}, err
	}
	sheet, err := export.LookupSheet(export.ReportSheet)
	if err != nil {
		return "", chrome.PrintOptions{}, err
	}
	doc := export.InjectStyle(html, sheet.CSS)
	opts := export.PrintOptions(cfg, ReportFooterTitle+" "+r.PeriodLabel)
	return doc, opts, nil
}

// PDFWriter prints close reports through a throwaway chrome instance.
type PDFWriter struct {
	cfg    config.PDF
	render renderFunc
}

func NewPDFWriter(cfg config.PDF) *PDFWriter {
	return &PDFWriter{cfg: cfg, render: chrome.RenderPDF}
}

// Render produces the PDF bytes for a close report.
func (p *PDFWriter) Render(ctx context.Context, r *CloseReport) ([]byte, error) {
	doc, opts, err := PDFDocument(r, p.cfg)
	if err != nil {
		return nil, err
	}

	pdf, err := p.render(ctx, p.cfg, doc, opts)
	if err != nil {
		return nil, domain.E(domain.KindRender, "report", "chrome render failed", err)
	}
	if len(pdf) == 0 {
		return nil, domain.E(domain.KindRender, "report", "chrome produced an empty document", nil)
	}
	return pdf, nil
}

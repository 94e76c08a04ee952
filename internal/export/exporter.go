package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/infra/chrome"
	"labops/internal/infra/logging"
)

// GuideFooterTitle is the document title shown in the running footer of the
// exported gids.
const GuideFooterTitle = "FID Finance - Odoo 19 Boekhouding Gids"

// Print geometry for the guide: A4 with 20mm top/bottom and 15mm side
// margins, the footer rendered inside the bottom margin.
const (
	marginVerticalMM   = 20
	marginHorizontalMM = 15
)

func mmToInches(mm float64) float64 { return mm / 25.4 }

type renderFunc func(ctx context.Context, pdfCfg config.PDF, html string, opts chrome.PrintOptions) ([]byte, error)

// Exporter produces a print-optimized PDF snapshot of an HTML document.
type Exporter struct {
	cfg config.PDF

	// FooterTitle overrides the footer document title when set.
	FooterTitle string

	render renderFunc
}

// New builds an Exporter rendering through headless chrome.
func New(cfg config.PDF) *Exporter {
	return &Exporter{cfg: cfg, render: chrome.RenderPDF}
}

// Export reads the HTML document at inputPath, injects the print sheet and
// writes the rendered PDF to outputPath, replacing any previous file there.
// One attempt, no retries; a missing input fails before anything is written.
func (e *Exporter) Export(ctx context.Context, inputPath, outputPath string, sheet Sheet) error {
	const op = "export"

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return domain.E(domain.KindNotFound, op, fmt.Sprintf("input document %s does not exist", inputPath), err)
		}
		return domain.E(domain.KindNotFound, op, fmt.Sprintf("input document %s not readable", inputPath), err)
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return domain.E(domain.KindNotFound, op, fmt.Sprintf("read input document %s", inputPath), err)
	}

	doc := InjectStyle(string(raw), sheet.CSS)

	pdf, err := e.render(ctx, e.cfg, doc, e.printOptions())
	if err != nil {
		return domain.E(domain.KindRender, op, "chrome render failed", err)
	}
	if len(pdf) == 0 {
		return domain.E(domain.KindRender, op, "chrome produced an empty document", nil)
	}

	if err := writeFileAtomic(outputPath, pdf); err != nil {
		return domain.E(domain.KindWrite, op, fmt.Sprintf("write %s", outputPath), err)
	}

	logging.Info("Guide exported",
		"input", inputPath,
		"output", outputPath,
		"sheet", sheet.ID(),
		"bytes", len(pdf),
	)
	return nil
}

func (e *Exporter) printOptions() chrome.PrintOptions {
	title := e.FooterTitle
	if title == "" {
		title = GuideFooterTitle
	}
	return PrintOptions(e.cfg, title)
}

// PrintOptions is the house print geometry: the configured paper size (A4
// when unset) with the standard margins and the numbered footer.
func PrintOptions(cfg config.PDF, footerTitle string) chrome.PrintOptions {
	paper, ok := cfg.PaperSizes[cfg.DefaultPaper]
	if !ok {
		paper = config.PaperSize{Width: 8.27, Height: 11.69}
	}
	return chrome.PrintOptions{
		PaperWidthIn:        paper.Width,
		PaperHeightIn:       paper.Height,
		MarginTopIn:         mmToInches(marginVerticalMM),
		MarginBottomIn:      mmToInches(marginVerticalMM),
		MarginLeftIn:        mmToInches(marginHorizontalMM),
		MarginRightIn:       mmToInches(marginHorizontalMM),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      blankHeader,
		FooterTemplate:      FooterTemplate(footerTitle),
	}
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so a failed render never leaves a partial PDF.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gids2pdf-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

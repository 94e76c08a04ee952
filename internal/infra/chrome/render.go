package chrome

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"labops/internal/config"
)

// settleDelay gives late layout work (web fonts, counters) a beat to finish
// before printing.
const settleDelay = 200 * time.Millisecond

// PrintOptions map onto Chrome's printToPDF parameters. Dimensions are in
// inches.
type PrintOptions struct {
	PaperWidthIn  float64
	PaperHeightIn float64

	MarginTopIn    float64
	MarginBottomIn float64
	MarginLeftIn   float64
	MarginRightIn  float64

	Landscape         bool
	Scale             float64
	PrintBackground   bool
	PreferCSSPageSize bool

	DisplayHeaderFooter bool
	HeaderTemplate      string
	FooterTemplate      string
}

func (o PrintOptions) params() *page.PrintToPDFParams {
	p := page.PrintToPDF().
		WithPrintBackground(o.PrintBackground).
		WithPaperWidth(o.PaperWidthIn).
		WithPaperHeight(o.PaperHeightIn).
		WithMarginTop(o.MarginTopIn).
		WithMarginBottom(o.MarginBottomIn).
		WithMarginLeft(o.MarginLeftIn).
		WithMarginRight(o.MarginRightIn).
		WithLandscape(o.Landscape).
		WithPreferCSSPageSize(o.PreferCSSPageSize)
	if o.Scale > 0 {
		p = p.WithScale(o.Scale)
	}
	if o.DisplayHeaderFooter {
		p = p.WithDisplayHeaderFooter(true).
			WithHeaderTemplate(o.HeaderTemplate).
			WithFooterTemplate(o.FooterTemplate)
	}
	return p
}

// RenderHTML prints the given document to PDF inside an existing tab
// context, typically one acquired from a Pool.
func RenderHTML(ctx context.Context, html string, opts PrintOptions) ([]byte, error) {
	var pdfBuf []byte

	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return waitForRenderReady(ctx, settleDelay)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = opts.params().Do(ctx)
			return err
		}),
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// RenderPDF launches a throwaway chrome instance for a single render. Used
// by the CLI and as the service fallback when the pool is disabled.
func RenderPDF(ctx context.Context, pdfCfg config.PDF, html string, opts PrintOptions) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(pdfCfg, tmpDir)...)
	defer allocCancel()

	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if pdfCfg.TimeoutSecs > 0 {
		var tcancel context.CancelFunc
		chromeCtx, tcancel = context.WithTimeout(chromeCtx, time.Duration(pdfCfg.TimeoutSecs)*time.Second)
		defer tcancel()
	}

	return RenderHTML(chromeCtx, html, opts)
}

// allocatorOptions forces software rendering so chrome behaves in minimal
// container environments without a GPU.
func allocatorOptions(pdfCfg config.PDF, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if pdfCfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(pdfCfg.ChromePath))
	}
	if pdfCfg.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// waitForRenderReady sleeps for the settle delay but stays responsive to
// cancellation.
func waitForRenderReady(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

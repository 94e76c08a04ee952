package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/infra/chrome"
)

func writeGuide(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "odoo-boekhouding-gids.html")
	body := `<html><head><title>Gids</title></head><body><div class="tab-content">hello</div></body></html>`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write guide: %v", err)
	}
	return p
}

func fakeRender(pdf []byte, err error) renderFunc {
	return func(ctx context.Context, pdfCfg config.PDF, html string, opts chrome.PrintOptions) ([]byte, error) {
		return pdf, err
	}
}

func TestExport_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	in := writeGuide(t, dir)
	out := filepath.Join(dir, "gids.pdf")

	var gotHTML string
	var gotOpts chrome.PrintOptions
	e := New(config.Default().PDF)
	e.render = func(ctx context.Context, pdfCfg config.PDF, html string, opts chrome.PrintOptions) ([]byte, error) {
		gotHTML = html
		gotOpts = opts
		return []byte("%PDF-1.7 fake"), nil
	}

	if err := e.Export(context.Background(), in, out, DefaultSheet()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("expected pdf bytes, got %q", data)
	}

	if !strings.Contains(gotHTML, ".tab-content") {
		t.Fatalf("expected print sheet injected into rendered document")
	}
	if !gotOpts.DisplayHeaderFooter || !strings.Contains(gotOpts.FooterTemplate, "Pagina") {
		t.Fatalf("expected running footer enabled, got %+v", gotOpts)
	}
	if !strings.Contains(gotOpts.FooterTemplate, GuideFooterTitle) {
		t.Fatalf("expected footer title in template")
	}
	if gotOpts.MarginTopIn < 0.78 || gotOpts.MarginTopIn > 0.80 {
		t.Fatalf("expected 20mm top margin in inches, got %v", gotOpts.MarginTopIn)
	}
	if gotOpts.MarginLeftIn < 0.58 || gotOpts.MarginLeftIn > 0.60 {
		t.Fatalf("expected 15mm side margin in inches, got %v", gotOpts.MarginLeftIn)
	}
	if !gotOpts.PrintBackground {
		t.Fatalf("expected print background enabled")
	}
}

func TestExport_OverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeGuide(t, dir)
	out := filepath.Join(dir, "gids.pdf")

	e := New(config.Default().PDF)
	e.render = fakeRender([]byte("%PDF first"), nil)
	if err := e.Export(context.Background(), in, out, DefaultSheet()); err != nil {
		t.Fatalf("first export: %v", err)
	}

	e.render = fakeRender([]byte("%PDF second"), nil)
	if err := e.Export(context.Background(), in, out, DefaultSheet()); err != nil {
		t.Fatalf("second export: %v", err)
	}

	data, _ := os.ReadFile(out)
	if string(data) != "%PDF second" {
		t.Fatalf("expected output to be replaced, got %q", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".gids2pdf-*"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no temp files left behind, got %v", leftovers)
	}
}

func TestExport_MissingInputFailsBeforeAnyWrite(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "gids.pdf")

	e := New(config.Default().PDF)
	e.render = fakeRender([]byte("%PDF"), nil)

	err := e.Export(context.Background(), filepath.Join(dir, "absent.html"), out, DefaultSheet())
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file for missing input")
	}
}

func TestExport_RenderFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeGuide(t, dir)
	out := filepath.Join(dir, "gids.pdf")

	e := New(config.Default().PDF)
	e.render = fakeRender(nil, errors.New("chrome exploded"))

	err := e.Export(context.Background(), in, out, DefaultSheet())
	if !domain.IsRender(err) {
		t.Fatalf("expected render kind, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file after render failure")
	}
}

func TestExport_EmptyRenderIsAnError(t *testing.T) {
	dir := t.TempDir()
	in := writeGuide(t, dir)

	e := New(config.Default().PDF)
	e.render = fakeRender(nil, nil)

	if err := e.Export(context.Background(), in, filepath.Join(dir, "out.pdf"), DefaultSheet()); !domain.IsRender(err) {
		t.Fatalf("expected render kind for empty pdf, got %v", err)
	}
}

func TestExport_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeGuide(t, dir)

	e := New(config.Default().PDF)
	e.render = fakeRender([]byte("%PDF"), nil)

	err := e.Export(context.Background(), in, "/dev/null/nope/out.pdf", DefaultSheet())
	if !domain.IsWrite(err) {
		t.Fatalf("expected write kind, got %v", err)
	}
}

func TestFooterTemplate_EscapesTitle(t *testing.T) {
	tpl := FooterTemplate(`A "quoted" <title>`)
	if strings.Contains(tpl, "<title>") {
		t.Fatalf("expected title to be escaped: %s", tpl)
	}
	if !strings.Contains(tpl, `class="pageNumber"`) || !strings.Contains(tpl, `class="totalPages"`) {
		t.Fatalf("expected page counter spans: %s", tpl)
	}
}

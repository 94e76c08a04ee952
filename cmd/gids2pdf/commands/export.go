package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"labops/internal/domain"
	"labops/internal/export"
	"labops/internal/infra/chrome"
)

func exportCmd() *cobra.Command {
	var (
		inPath   string
		outPath  string
		styleRef string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a gids HTML document to a print-optimized PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(inPath); err != nil {
				return domain.E(domain.KindNotFound, "gids2pdf.export",
					fmt.Sprintf("input document %s does not exist", inPath), err)
			}
			if outPath == "" {
				outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".pdf"
			}
			sheet, err := export.LookupSheet(styleRef)
			if err != nil {
				return err
			}

			// Resolving the browser last means a missing input or bad style
			// ref never triggers a Chromium download.
			browser, err := chrome.ResolveBrowser(cfg.PDF.ChromePath)
			if err != nil {
				return domain.E(domain.KindRender, "gids2pdf.export", "no usable chrome executable", err)
			}
			cfg.PDF.ChromePath = browser

			exp := export.New(cfg.PDF)
			if err := exp.Export(context.Background(), inPath, outPath, sheet); err != nil {
				return err
			}
			cmd.Printf("Wrote %s (%s)\n", outPath, sheet.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path of the HTML document to export")
	cmd.Flags().StringVar(&outPath, "out", "", "path of the PDF to write (default: --in with a .pdf extension)")
	cmd.Flags().StringVar(&styleRef, "style", export.GuideSheet, "print style sheet, name or name@vN")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

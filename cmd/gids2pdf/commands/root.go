package commands

import (
	"os"

	"github.com/spf13/cobra"

	"labops/internal/config"
	"labops/internal/infra/logging"
)

var (
	cfgPath     string
	chromePath  string
	timeoutSecs int
	logLevel    string

	cfg config.Config
)

// Execute runs the gids2pdf command tree. Errors are reported by cobra on
// stderr; the caller only decides the exit code.
func Execute() error {
	return newRoot().Execute()
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "gids2pdf",
		Short:         "Export the boekhouding gids to a print-ready PDF",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				loaded, err := config.LoadFrom(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			} else {
				cfg = config.Default()
			}
			if chromePath == "" {
				chromePath = os.Getenv("CHROME_BIN")
			}
			if chromePath != "" {
				cfg.PDF.ChromePath = chromePath
			}
			if timeoutSecs > 0 {
				cfg.PDF.TimeoutSecs = timeoutSecs
			}
			logging.InitLogger("", 0, 0, 0, false, logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (optional, defaults apply without one)")
	root.PersistentFlags().StringVar(&chromePath, "chrome", "", "chrome executable (default: config, then CHROME_BIN, then a managed download)")
	root.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "render timeout in seconds (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	root.AddCommand(exportCmd(), stylesCmd())
	return root
}

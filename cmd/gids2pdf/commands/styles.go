package commands

import (
	"github.com/spf13/cobra"

	"labops/internal/export"
)

func stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the embedded print style sheets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range export.Sheets() {
				cmd.Printf("%-20s %5d bytes\n", s.ID(), len(s.CSS))
			}
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"accentscope/internal/analysis"
	"accentscope/internal/api"
)

func newAccentsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "accents",
		Short: "List the locales accentscope can name",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			listing := api.AccentTable(analysis.ClassifierFromConfig(cfg).Policy())
			if jsonOutput {
				return writeJSON(cmd, listing)
			}

			rows := make([][]string, 0, len(listing.Accents))
			for _, entry := range listing.Accents {
				rows = append(rows, []string{entry.Locale, entry.Accent, entry.Region})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Locale", "Accent", "Region"}, rows, nil))
			fmt.Fprintf(out, "Other locales are reported as %q.\n", listing.Fallback)
			fmt.Fprintf(out, "Tiers: Low below %.0f%%, Medium %.0f%%-%.0f%%, High above %.0f%%.\n",
				listing.MediumFrom, listing.MediumFrom, listing.HighAbove, listing.HighAbove)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the table as JSON")
	return cmd
}

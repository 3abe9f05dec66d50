package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func modelsCMD(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model catalog with pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := a.cfg.Models.BuildCatalog()
			if asJSON {
				out := make([]any, 0, len(catalog))
				for _, id := range catalog.IDs() {
					out = append(out, catalog[id])
				}
				b, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tIN $/M\tOUT $/M\tMAX TOKENS\tROLE")
			for _, id := range catalog.IDs() {
				m := catalog[id]
				role := "analysis"
				if m.SupportsWebSearch {
					role = "research"
				}
				if id == a.cfg.Models.Research || id == a.cfg.Models.Analysis {
					role += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%d\t%s\n",
					m.ID, m.Name, m.InputPricePerMillion, m.OutputPricePerMillion, m.MaxTokens, role)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

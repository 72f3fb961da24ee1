package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var fixTotals bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compara el total de cada artículo con la suma de sus saldos",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApplication(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.reconcile.Run(cmd.Context(), fixTotals)
		if err != nil {
			return err
		}
		log.Info().Int("discrepancies", len(out.Discrepancies)).Bool("fixed", out.Fixed).Msg("conciliación terminada")
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&fixTotals, "fix", false, "reescribir el total de los artículos desalineados")
}

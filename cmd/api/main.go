package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "almacen-api",
	Short:         "API de inventario de bodega con libro de movimientos",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, jobsCmd)
}

// @title           Almacén API
// @version         1.0
// @description     API de inventario de bodega con libro de movimientos de stock.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	// Sin subcomando se levanta el servidor.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, serveCmd.Use)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

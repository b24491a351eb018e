package commands

import (
	"log/slog"
	"os"

	"pdm-backend/lib/serviceutil"
	"pdm-backend/services/reports/parser"
	"pdm-backend/services/reports/reshape"

	"github.com/spf13/cobra"
)

var reshapeOut *string

func init() {
	reshapeOut = reshapeCmd.Flags().String("out", "indications.csv", "The CSV file to write the long-format table to.")
	rootCmd.AddCommand(reshapeCmd)
}

var reshapeCmd = &cobra.Command{
	Use:   "reshape <wide.csv> [--out <path/to/output.csv>]",
	Short: "Reshapes a wide report CSV into one row per indication.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		in, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open input csv", err)
		}
		defer in.Close()

		columns, rows, err := parser.ReadTable(in)
		if err != nil {
			serviceutil.Fatal("failed to read input csv", err)
		}

		longColumns, longRows := reshape.WideToLong(columns, rows)
		slog.Info("reshaped dataset", "reports", len(rows), "indications", len(longRows))

		out, err := os.Create(*reshapeOut)
		if err != nil {
			serviceutil.Fatal("failed to create output csv", err)
		}
		defer out.Close()

		err = parser.WriteTable(out, longColumns, longRows)
		if err != nil {
			serviceutil.Fatal("failed to write output csv", err)
		}
	},
}
